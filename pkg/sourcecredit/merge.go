package sourcecredit

// Merge collapses per-section extractions that refer to the same Public
// Law into one aggregate record per canonical id.
//
// Section sets and position maps are unioned; position maps are keyed
// by section id, so the union is conflict-free (each extraction only
// contributes entries for its own section). EnactedDate and
// StatutesAtLarge resolve by first-non-empty-wins in input order: a law
// cited tersely in one section's credit keeps the full date and Stat
// context found in another's, and a field once set is never
// overwritten.
//
// Merge is idempotent: merging the same input twice, or re-merging its
// own output, yields the same result.
func Merge(extracted []*ExtractedPublicLaw) map[string]*ExtractedPublicLaw {
	merged := make(map[string]*ExtractedPublicLaw)

	for _, record := range extracted {
		existing, found := merged[record.CanonicalID]
		if !found {
			merged[record.CanonicalID] = cloneRecord(record)
			continue
		}

		for sectionID := range record.SourceSectionIDs {
			existing.SourceSectionIDs[sectionID] = true
		}
		for sectionID, position := range record.PositionInSource {
			existing.PositionInSource[sectionID] = position
		}
		if existing.EnactedDate == nil && record.EnactedDate != nil {
			enacted := *record.EnactedDate
			existing.EnactedDate = &enacted
		}
		if existing.StatutesAtLarge == "" && record.StatutesAtLarge != "" {
			existing.StatutesAtLarge = record.StatutesAtLarge
		}
	}

	return merged
}

// cloneRecord deep-copies a record so that merging never aliases or
// mutates caller-owned maps.
func cloneRecord(record *ExtractedPublicLaw) *ExtractedPublicLaw {
	clone := &ExtractedPublicLaw{
		Congress:         record.Congress,
		LawNumber:        record.LawNumber,
		CanonicalID:      record.CanonicalID,
		StatutesAtLarge:  record.StatutesAtLarge,
		SourceSectionIDs: make(map[string]bool, len(record.SourceSectionIDs)),
		PositionInSource: make(map[string]int, len(record.PositionInSource)),
	}
	if record.EnactedDate != nil {
		enacted := *record.EnactedDate
		clone.EnactedDate = &enacted
	}
	for sectionID := range record.SourceSectionIDs {
		clone.SourceSectionIDs[sectionID] = true
	}
	for sectionID, position := range record.PositionInSource {
		clone.PositionInSource[sectionID] = position
	}
	return clone
}
