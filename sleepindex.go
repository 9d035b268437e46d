package uthreads

// sleepIndex maps an absolute wake-quantum to the set of TCBs scheduled
// to wake then, translating the original library's
// std::unordered_map<unsigned int, std::vector<int>> sleepMap.
type sleepIndex struct {
	buckets map[uint64][]*threadControlBlock
}

func newSleepIndex() *sleepIndex {
	return &sleepIndex{buckets: make(map[uint64][]*threadControlBlock)}
}

// insert records that t should wake at quantum wakeAt.
func (s *sleepIndex) insert(wakeAt uint64, t *threadControlBlock) {
	s.buckets[wakeAt] = append(s.buckets[wakeAt], t)
}

// purge removes t from whatever bucket it may be sitting in. Needed so a
// terminated sleeping thread's stale id never resurfaces in a later
// sweep (spec §9 Open Question (a)).
func (s *sleepIndex) purge(t *threadControlBlock) {
	bucket, ok := s.buckets[t.wakeAt]
	if !ok {
		return
	}
	for i, candidate := range bucket {
		if candidate == t {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(s.buckets, t.wakeAt)
	} else {
		s.buckets[t.wakeAt] = bucket
	}
}

// sweep pops the bucket for quantum t and returns the TCBs that are
// genuinely still sleeping for that exact wake time (a thread's wakeAt
// could have been changed or the thread terminated since it was
// inserted, so every candidate is re-validated against live state).
func (s *sleepIndex) sweep(quantum uint64) []*threadControlBlock {
	bucket, ok := s.buckets[quantum]
	if !ok {
		return nil
	}
	delete(s.buckets, quantum)

	woken := make([]*threadControlBlock, 0, len(bucket))
	for _, t := range bucket {
		if t.state == stateSleeping && t.wakeAt == quantum {
			woken = append(woken, t)
		}
	}
	return woken
}
