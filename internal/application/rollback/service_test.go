package rollback

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookverse/apptrust-rollback/internal/domain/registry"
	apterrors "github.com/bookverse/apptrust-rollback/internal/errors"
)

// fakeClient records every call made against the registry.
type fakeClient struct {
	entries []registry.VersionEntry
	listErr error

	rollbackErr error
	rollbacks   []rollbackCall

	patchErr func(version string) error
	patches  []patchCall
}

type rollbackCall struct {
	appKey, version, fromStage string
}

type patchCall struct {
	appKey, version string
	patch           registry.TagPatch
}

func (f *fakeClient) ListVersions(_ context.Context, _ string) ([]registry.VersionEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.entries, nil
}

func (f *fakeClient) RollbackVersion(_ context.Context, appKey, version, fromStage string) error {
	if f.rollbackErr != nil {
		return f.rollbackErr
	}
	f.rollbacks = append(f.rollbacks, rollbackCall{appKey, version, fromStage})
	return nil
}

func (f *fakeClient) PatchVersion(_ context.Context, appKey, version string, patch registry.TagPatch) error {
	if f.patchErr != nil {
		if err := f.patchErr(version); err != nil {
			return err
		}
	}
	f.patches = append(f.patches, patchCall{appKey, version, patch})
	return nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func prodEntries() []registry.VersionEntry {
	return []registry.VersionEntry{
		{Version: "2.0.0", Tag: registry.TagLatest, Status: registry.StatusReleased},
		{Version: "1.5.0", Tag: "", Status: registry.StatusTrustedRelease},
		{Version: "1.0.0", Tag: registry.TagQuarantine, Status: registry.StatusReleased},
	}
}

func TestRun_LatestTargetReassignsSuccessor(t *testing.T) {
	client := &fakeClient{entries: prodEntries()}
	svc := NewService(client, testLogger(), false)

	result, err := svc.Run(context.Background(), "bookverse-web", "2.0.0")
	require.NoError(t, err)

	// Remote stage rollback always happens first, from PROD.
	require.Len(t, client.rollbacks, 1)
	assert.Equal(t, rollbackCall{"bookverse-web", "2.0.0", registry.StageProd}, client.rollbacks[0])

	// Quarantine patch on the target records the prior latest tag.
	require.Len(t, client.patches, 2)
	quarantine := client.patches[0]
	assert.Equal(t, "2.0.0", quarantine.version)
	require.NotNil(t, quarantine.patch.Tag)
	assert.Equal(t, registry.TagQuarantine, *quarantine.patch.Tag)
	assert.Equal(t, []string{registry.TagLatest}, quarantine.patch.Properties[registry.BackupBeforeQuarantine])

	// 1.5.0 becomes latest since 1.0.0 sits in quarantine; its prior
	// empty tag is recorded.
	promote := client.patches[1]
	assert.Equal(t, "1.5.0", promote.version)
	require.NotNil(t, promote.patch.Tag)
	assert.Equal(t, registry.TagLatest, *promote.patch.Tag)
	assert.Equal(t, []string{""}, promote.patch.Properties[registry.BackupBeforeLatest])

	assert.True(t, result.HadLatest)
	assert.Equal(t, "1.5.0", result.Successor)
	assert.Equal(t, registry.TagLatest, result.PriorTag)
	assert.Equal(t, string(StateDone), result.FinalState)
}

func TestRun_NonLatestTargetSkipsSuccessorSearch(t *testing.T) {
	client := &fakeClient{entries: prodEntries()}
	svc := NewService(client, testLogger(), false)

	result, err := svc.Run(context.Background(), "bookverse-web", "1.5.0")
	require.NoError(t, err)

	require.Len(t, client.patches, 1)
	assert.Equal(t, "1.5.0", client.patches[0].version)

	assert.False(t, result.HadLatest)
	assert.Empty(t, result.Successor)
	assert.Equal(t, "", result.PriorTag)
	assert.Equal(t, string(StateDone), result.FinalState)
}

func TestRun_SoleEligibleLatestLeavesNoLatest(t *testing.T) {
	client := &fakeClient{entries: []registry.VersionEntry{
		{Version: "2.0.0", Tag: registry.TagLatest, Status: registry.StatusReleased},
	}}
	svc := NewService(client, testLogger(), false)

	result, err := svc.Run(context.Background(), "bookverse-web", "2.0.0")
	require.NoError(t, err)

	// Quarantine happened; nothing was promoted.
	require.Len(t, client.patches, 1)
	assert.True(t, result.NoSuccessor)
	assert.Empty(t, result.Successor)
	assert.Equal(t, string(StateDone), result.FinalState)
}

func TestRun_DryRunIssuesNoMutations(t *testing.T) {
	client := &fakeClient{entries: prodEntries()}
	svc := NewService(client, testLogger(), true)

	result, err := svc.Run(context.Background(), "bookverse-web", "2.0.0")
	require.NoError(t, err)

	assert.Empty(t, client.rollbacks)
	assert.Empty(t, client.patches)

	// The full decision still ran.
	assert.True(t, result.DryRun)
	assert.True(t, result.HadLatest)
	assert.Equal(t, "1.5.0", result.Successor)
}

func TestRun_TargetNotEligibleAbortsBeforeMutation(t *testing.T) {
	tests := []struct {
		name    string
		entries []registry.VersionEntry
		target  string
	}{
		{
			name:    "absent version",
			entries: prodEntries(),
			target:  "9.9.9",
		},
		{
			name: "present but ineligible status",
			entries: []registry.VersionEntry{
				{Version: "2.0.0", Tag: "", Status: registry.ReleaseStatus("PENDING")},
			},
			target: "2.0.0",
		},
		{
			name: "present but unparsable version",
			entries: []registry.VersionEntry{
				{Version: "build-42", Tag: "", Status: registry.StatusReleased},
			},
			target: "build-42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{entries: tt.entries}
			svc := NewService(client, testLogger(), false)

			_, err := svc.Run(context.Background(), "bookverse-web", tt.target)
			require.Error(t, err)
			assert.Equal(t, apterrors.KindNotEligible, apterrors.GetKind(err))
			assert.Empty(t, client.rollbacks)
			assert.Empty(t, client.patches)
		})
	}
}

func TestRun_ListFailureAborts(t *testing.T) {
	client := &fakeClient{listErr: apterrors.Registry("apptrust.ListVersions", "server returned 502")}
	svc := NewService(client, testLogger(), false)

	_, err := svc.Run(context.Background(), "bookverse-web", "2.0.0")
	require.Error(t, err)
	assert.Equal(t, apterrors.KindRegistry, apterrors.GetKind(err))
	assert.Empty(t, client.rollbacks)
	assert.Empty(t, client.patches)
}

func TestRun_RemoteRollbackFailureLeavesTagsUntouched(t *testing.T) {
	client := &fakeClient{
		entries:     prodEntries(),
		rollbackErr: apterrors.Registry("apptrust.RollbackVersion", "server returned 409"),
	}
	svc := NewService(client, testLogger(), false)

	_, err := svc.Run(context.Background(), "bookverse-web", "2.0.0")
	require.Error(t, err)
	assert.Empty(t, client.patches, "no tag mutation may happen after a failed remote rollback")
}

func TestRun_SecondPatchFailureSurfacesPartialState(t *testing.T) {
	client := &fakeClient{
		entries: prodEntries(),
		patchErr: func(version string) error {
			if version == "1.5.0" {
				return apterrors.Registry("apptrust.PatchVersion", "server returned 500")
			}
			return nil
		},
	}
	svc := NewService(client, testLogger(), false)

	_, err := svc.Run(context.Background(), "bookverse-web", "2.0.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manual recovery")

	// The quarantine patch already landed and is not rolled back.
	require.Len(t, client.patches, 1)
	assert.Equal(t, "2.0.0", client.patches[0].version)
}

func TestRun_SuccessorSearchUsesPreMutationRanking(t *testing.T) {
	// The registry listing still shows 2.0.0 as latest; the successor
	// search must run against that snapshot, not re-fetch after the
	// quarantine patch.
	client := &fakeClient{entries: prodEntries()}
	svc := NewService(client, testLogger(), false)

	result, err := svc.Run(context.Background(), "bookverse-web", "2.0.0")
	require.NoError(t, err)
	assert.Equal(t, "1.5.0", result.Successor)
	assert.Equal(t, "", result.SuccessorPriorTag)
}
