package registry

// TagPatch describes a partial update of a version entry. Nil or empty
// fields are omitted from the request; a non-nil empty Tag explicitly clears
// the tag.
type TagPatch struct {
	Tag              *string
	Properties       map[string][]string
	DeleteProperties []string
}

// QuarantinePatch builds the patch that quarantines a version, recording the
// prior tag under the quarantine backup key for manual reversal.
func QuarantinePatch(priorTag string) TagPatch {
	tag := TagQuarantine
	return TagPatch{
		Tag:        &tag,
		Properties: map[string][]string{BackupBeforeQuarantine: {priorTag}},
	}
}

// PromoteLatestPatch builds the patch that promotes a version to latest,
// recording the prior tag under the latest backup key.
func PromoteLatestPatch(priorTag string) TagPatch {
	tag := TagLatest
	return TagPatch{
		Tag:        &tag,
		Properties: map[string][]string{BackupBeforeLatest: {priorTag}},
	}
}
