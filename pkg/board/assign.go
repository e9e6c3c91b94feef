package board

// FallbackBucket is the reserved bucket for records whose grouping value is
// absent, and for the whole board when no grouping key is configured.
const FallbackBucket = "none"

// Bucket is one named, ordered column of task records.
type Bucket struct {
	Name    string       `json:"name"`
	Records []TaskRecord `json:"records"`
}

// Buckets is an ordered set of board columns. Order is first-seen order of
// grouping values during the assignment pass that built it.
type Buckets []Bucket

// Get returns the bucket with the given name.
func (b Buckets) Get(name string) (Bucket, bool) {
	for _, bucket := range b {
		if bucket.Name == name {
			return bucket, true
		}
	}
	return Bucket{}, false
}

// Names returns bucket names in board order.
func (b Buckets) Names() []string {
	names := make([]string, len(b))
	for i, bucket := range b {
		names[i] = bucket.Name
	}
	return names
}

// TotalRecords returns the number of records across all buckets.
func (b Buckets) TotalRecords() int {
	n := 0
	for _, bucket := range b {
		n += len(bucket.Records)
	}
	return n
}

// Assign buckets records by their value for the resolved grouping key. The
// bucket set is rebuilt from scratch on every call; stale columns from a
// prior pass can never survive.
//
// With the none sentinel every record lands in the fallback bucket, the one
// case where a single bucket is the correct result. With a real key, each
// record goes to the bucket named by its value, created on first use in
// encounter order; records without a value go to the fallback bucket, which
// also takes its position from the first record that needs it.
func Assign(records []TaskRecord, key Key) Buckets {
	if len(records) == 0 {
		return nil
	}

	if key.IsNone() {
		return Buckets{{Name: FallbackBucket, Records: records}}
	}

	var buckets Buckets
	index := make(map[string]int)
	for _, rec := range records {
		name := FallbackBucket
		if v, ok := rec.Prop(key); ok {
			name = v
		}
		i, ok := index[name]
		if !ok {
			i = len(buckets)
			index[name] = i
			buckets = append(buckets, Bucket{Name: name})
		}
		buckets[i].Records = append(buckets[i].Records, rec)
	}
	return buckets
}
