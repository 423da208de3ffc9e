package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bianoble/modsync/internal/toolchain"
)

// snapshotVendor records the contents of vendor files that are already dirty
// before anything runs, so unchanged ones are not reported later.
func (e *Engine) snapshotVendor(s *session) (map[string][]byte, error) {
	prefix := VendorDir(s.req.ManifestPath)
	snap := make(map[string][]byte)
	for _, p := range append(append([]string(nil), s.baseline.Modified...), s.baseline.Added...) {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		data, ok, err := e.Files.ReadFile(p)
		if err != nil {
			return nil, reconciliationFailure("reading vendored file", err)
		}
		if ok {
			snap[p] = data
		}
	}
	return snap, nil
}

// syncVendor re-runs vendoring and collects the vendor tree changes: writes
// for modified and added files under the vendor directory, then deletes for
// removed ones. Both groups are sorted and free of duplicates.
func (e *Engine) syncVendor(ctx context.Context, s *session, tidy bool) ([]Outcome, error) {
	steps := []toolchain.Step{{Name: "vendor", Args: []string{"mod", "vendor"}}}
	if tidy {
		steps = append(steps, toolchain.Step{Name: "tidy", Args: []string{"mod", "tidy"}})
	}
	if err := s.invoker.Run(ctx, s.plan, steps...); err != nil {
		return nil, toolchainFailure("vendoring", err)
	}

	status, err := e.Status.Status(ctx)
	if err != nil {
		return nil, reconciliationFailure("querying repository status", err)
	}

	prefix := VendorDir(s.req.ManifestPath)
	var outcomes []Outcome
	for _, p := range dedupe(append(append([]string(nil), status.Modified...), status.Added...)) {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		data, ok, err := e.Files.ReadFile(p)
		if err != nil || !ok {
			return nil, reconciliationFailure("reading vendored file", errOrMissing(err, p))
		}
		if before, dirty := s.snapshot[p]; dirty && bytes.Equal(before, data) {
			continue
		}
		outcomes = append(outcomes, WriteOutcome(p, data))
	}

	alreadyDeleted := make(map[string]bool, len(s.baseline.Deleted))
	for _, p := range s.baseline.Deleted {
		alreadyDeleted[p] = true
	}
	for _, p := range dedupe(status.Deleted) {
		if alreadyDeleted[p] {
			continue
		}
		outcomes = append(outcomes, DeleteOutcome(p))
	}

	s.logger.Debug().Int("changes", len(outcomes)).Msg("Collected vendor changes")
	return outcomes, nil
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func errOrMissing(err error, p string) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("%s: %w", p, os.ErrNotExist)
}
