package rollback

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/bookverse/apptrust-rollback/internal/domain/registry"
	apterrors "github.com/bookverse/apptrust-rollback/internal/errors"
)

// RegistryClient is the narrow registry interface the orchestrator depends
// on. The HTTP implementation lives in internal/infrastructure/apptrust.
type RegistryClient interface {
	ListVersions(ctx context.Context, appKey string) ([]registry.VersionEntry, error)
	RollbackVersion(ctx context.Context, appKey, version, fromStage string) error
	PatchVersion(ctx context.Context, appKey, version string, patch registry.TagPatch) error
}

// Service executes rollback runs. Registry state is fetched fresh on every
// run and never cached across invocations.
type Service struct {
	client RegistryClient
	logger *log.Logger
	dryRun bool
}

// NewService creates a rollback service. In dry-run mode the full decision
// logic runs, but every mutating call is replaced by a logged description of
// the intended call.
func NewService(client RegistryClient, logger *log.Logger, dryRun bool) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		client: client,
		logger: logger,
		dryRun: dryRun,
	}
}

// Result describes the outcome of a rollback run.
type Result struct {
	// RunID correlates log lines of one run.
	RunID string `json:"run_id"`
	// AppKey is the application that was rolled back.
	AppKey string `json:"app_key"`
	// TargetVersion is the version that was rolled back.
	TargetVersion string `json:"target_version"`
	// PriorTag is the tag the target held before quarantine.
	PriorTag string `json:"prior_tag"`
	// HadLatest reports whether the target held the latest tag.
	HadLatest bool `json:"had_latest"`
	// Successor is the version promoted to latest; empty when none was
	// promoted.
	Successor string `json:"successor,omitempty"`
	// SuccessorPriorTag is the tag the successor held before promotion.
	SuccessorPriorTag string `json:"successor_prior_tag,omitempty"`
	// NoSuccessor is true when the target held latest but no eligible
	// successor remained, leaving the system without a latest holder.
	NoSuccessor bool `json:"no_successor,omitempty"`
	// DryRun reports whether mutations were simulated.
	DryRun bool `json:"dry_run"`
	// FinalState is the terminal state of the run's state machine.
	FinalState string `json:"final_state"`
}

// Run rolls back the target version of an application in PROD.
//
// The sequence is: fetch and rank the eligible set (read-only), invoke the
// remote stage rollback, quarantine the target recording its prior tag, and
// when the target held the latest tag, promote the highest-ranked remaining
// candidate. The two tag patches are independent calls with no cross-call
// transaction: if quarantine succeeds and promotion fails, the registry is
// left with no latest holder and the error says so for manual recovery.
func (s *Service) Run(ctx context.Context, appKey, targetVersion string) (*Result, error) {
	const op = "rollback.Run"

	runID := uuid.NewString()
	logger := s.logger.With("run_id", runID, "app", appKey, "target", targetVersion)

	machine, err := NewMachine()
	if err != nil {
		return nil, apterrors.InternalWrap(err, op, "failed to initialize state machine")
	}
	machine.Start()

	// Validating: fresh fetch, rank, and locate the target. The ranked set
	// is computed once here, before any mutation, so the later successor
	// search is insulated from the target's own tag change.
	entries, err := s.client.ListVersions(ctx, appKey)
	if err != nil {
		machine.Send(EventAbort)
		return nil, err
	}
	ranked := registry.RankEligible(entries)
	logger.Debug("ranked eligible versions", "total", len(entries), "eligible", len(ranked))

	target, ok := registry.FindVersion(ranked, targetVersion)
	if !ok {
		machine.Send(EventAbort)
		return nil, apterrors.NotEligible(op,
			fmt.Sprintf("target version %s not found in the eligible PROD set of %s", targetVersion, appKey)).
			WithDetail("eligible_count", len(ranked))
	}

	result := &Result{
		RunID:         runID,
		AppKey:        appKey,
		TargetVersion: targetVersion,
		PriorTag:      target.Tag,
		HadLatest:     target.IsLatest(),
		DryRun:        s.dryRun,
	}
	machine.Send(EventValidated)

	// Remote stage rollback. A failure here aborts with no mutations
	// performed.
	if s.dryRun {
		logger.Info("dry-run: would invoke stage rollback",
			"from_stage", registry.StageProd)
	} else {
		if err := s.client.RollbackVersion(ctx, appKey, targetVersion, registry.StageProd); err != nil {
			machine.Send(EventAbort)
			result.FinalState = string(machine.Current())
			return nil, err
		}
		logger.Info("stage rollback invoked", "from_stage", registry.StageProd)
	}
	machine.Send(EventRollbackDone)

	// Quarantine the target, backing up the tag read during validation.
	if err := s.patchTag(ctx, logger, appKey, targetVersion, registry.QuarantinePatch(target.Tag)); err != nil {
		result.FinalState = string(machine.Current())
		return nil, err
	}
	logger.Info("target quarantined", "prior_tag", target.Tag)

	if !result.HadLatest {
		machine.Send(EventComplete)
		result.FinalState = string(machine.Current())
		logger.Info("rolled back non-latest version; latest unchanged")
		return result, nil
	}
	machine.Send(EventReassign)

	// The target held latest: reassign it to the best remaining candidate.
	successor, found := registry.PickSuccessor(ranked, targetVersion)
	if !found {
		result.NoSuccessor = true
		machine.Send(EventComplete)
		result.FinalState = string(machine.Current())
		logger.Warn("no successor found for latest; no version holds latest until the next promotion")
		return result, nil
	}

	if err := s.patchTag(ctx, logger, appKey, successor.Version, registry.PromoteLatestPatch(successor.Tag)); err != nil {
		// The first patch already landed: surface the partial state
		// instead of attempting any automatic repair.
		result.FinalState = string(machine.Current())
		return nil, apterrors.RegistryWrap(err, op,
			fmt.Sprintf("quarantined %s but failed to promote %s to latest; no version holds latest, manual recovery required",
				targetVersion, successor.Version))
	}

	result.Successor = successor.Version
	result.SuccessorPriorTag = successor.Tag
	machine.Send(EventComplete)
	result.FinalState = string(machine.Current())
	logger.Info("latest reassigned", "successor", successor.Version, "prior_tag", successor.Tag)

	return result, nil
}

// patchTag issues one tag patch, or logs the intended call in dry-run.
func (s *Service) patchTag(ctx context.Context, logger *log.Logger, appKey, version string, patch registry.TagPatch) error {
	if s.dryRun {
		tag := ""
		if patch.Tag != nil {
			tag = *patch.Tag
		}
		logger.Info("dry-run: would patch version",
			"version", version,
			"tag", tag,
			"properties", patch.Properties)
		return nil
	}
	return s.client.PatchVersion(ctx, appKey, version, patch)
}
