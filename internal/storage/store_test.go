package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tickerbench/tickerbench/models"
)

func testArtifact() *models.ResultArtifact {
	results := []models.ScoreResult{
		{
			Ticker:          "RR",
			AgentOutcome:    models.OutcomeIncrease,
			AgentConfidence: 0.75,
			ActualIncrease:  true,
			Status:          models.StatusPass,
			Rationale:       "Found mention of a 33.0% move.",
			EvidenceChecked: 3,
		},
		{
			Ticker:       "ZZZ",
			AgentOutcome: models.OutcomeUnknown,
			Status:       models.StatusIndeterminate,
			Rationale:    "No evidence found in the verify window.",
		},
	}
	return &models.ResultArtifact{
		RunID:       "run-0001",
		SummaryText: []string{"Invest benchmark (run run-0001)", "Tickers: RR, ZZZ"},
		Summary:     models.Summarize(results),
		Results:     results,
	}
}

func TestSaveAndLoadArtifact(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	artifact := testArtifact()
	if err := store.SaveArtifact(ctx, artifact); err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}

	loaded, err := store.LoadArtifact(ctx, artifact.RunID)
	if err != nil {
		t.Fatalf("LoadArtifact: %v", err)
	}
	if !reflect.DeepEqual(artifact, loaded) {
		t.Fatalf("round trip mismatch:\nsaved:  %+v\nloaded: %+v", artifact, loaded)
	}
}

func TestSaveArtifactRejectsDuplicateRun(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.SaveArtifact(ctx, testArtifact()); err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}
	if err := store.SaveArtifact(ctx, testArtifact()); err == nil {
		t.Fatal("expected error for duplicate run id")
	}
}

func TestLoadMissingRun(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if _, err := store.LoadArtifact(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown run id")
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}
