package render

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/tidemill/boardd/pkg/pipeline"
)

// envelope is the JSON emitted per frame, one object per line unless pretty
// printing is on.
type envelope struct {
	Seq     uint64       `json:"seq"`
	GroupBy string       `json:"group_by"`
	Source  string       `json:"source"`
	Time    time.Time    `json:"time"`
	Records int          `json:"records"`
	Buckets []jsonBucket `json:"buckets"`
}

type jsonBucket struct {
	Name    string       `json:"name"`
	Label   string       `json:"label,omitempty"`
	Records []jsonRecord `json:"records"`
}

type jsonRecord struct {
	ID    string            `json:"id"`
	Title string            `json:"title,omitempty"`
	Props map[string]string `json:"props,omitempty"`
}

// JSON renders each frame as a JSON document, for piping boardd into other
// tooling.
type JSON struct {
	mu     sync.Mutex
	out    io.Writer
	pretty bool
}

// NewJSON creates a JSON renderer writing to out.
func NewJSON(out io.Writer, pretty bool) *JSON {
	return &JSON{out: out, pretty: pretty}
}

// Render implements pipeline.Renderer.
func (r *JSON) Render(_ context.Context, frame pipeline.Frame) error {
	env := envelope{
		Seq:     frame.Seq,
		GroupBy: frame.Key.String(),
		Source:  string(frame.Source),
		Time:    frame.Time,
		Records: frame.Records(),
		Buckets: make([]jsonBucket, 0, len(frame.Buckets)),
	}
	for _, bucket := range frame.Buckets {
		jb := jsonBucket{
			Name:    bucket.Name,
			Records: make([]jsonRecord, 0, len(bucket.Records)),
		}
		if label := frame.Context.Label(bucket.Name); label != bucket.Name {
			jb.Label = label
		}
		for _, rec := range bucket.Records {
			jb.Records = append(jb.Records, jsonRecord{
				ID:    rec.ID,
				Title: rec.Title,
				Props: rec.Props,
			})
		}
		env.Buckets = append(env.Buckets, jb)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	enc := json.NewEncoder(r.out)
	if r.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(env)
}
