package visa

// Filter projects record onto the requested categories. requested keys
// that the record does not carry are skipped, duplicates collapse onto
// their first position.
func Filter(record Record, requested []CategoryKey) Result {
	result := newResult(len(requested))
	if record.IsEmpty() {
		return result
	}
	for _, key := range requested {
		content, ok := record.Get(key)
		if !ok {
			continue
		}
		result.set(key, content)
	}
	return result
}
