// Package sync reconciles card sources with the practice bank.
//
// Hand-typed Q/A blocks become golden-ticket cards, active immediately.
// Fact lists are expanded into banked overlapping-cloze cards. Identity
// is the content hash: an unchanged card keeps its row and its id, so
// the id-seeded context shuffle of existing cards never moves; editing
// a list changes every sibling's hash and regenerates the whole list.
package sync

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/practicebank/internal/cloze"
	"github.com/conorfennell/practicebank/internal/domain"
	"github.com/conorfennell/practicebank/internal/fingerprint"
	"github.com/conorfennell/practicebank/internal/gitsource"
	"github.com/conorfennell/practicebank/internal/parser"
	"github.com/conorfennell/practicebank/internal/storage"
)

// ReposDir is where git sources are cloned.
const ReposDir = "repos"

// RunSync iterates over all sources and reconciles them.
func RunSync(db *storage.DB) error {
	slog.Info("Starting sync process for all sources...")
	sources, err := db.GetAllSources()
	if err != nil {
		return fmt.Errorf("sync: failed to get sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("No sources configured.")
		return nil
	}

	if err := os.MkdirAll(ReposDir, os.ModePerm); err != nil {
		return fmt.Errorf("sync: failed to create repos directory: %w", err)
	}

	for _, source := range sources {
		slog.Info("Syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		sourceToReconcile := source

		switch source.Type {
		case "git":
			localRepoPath, err := gitURLToLocalPath(ReposDir, source.Path)
			if err != nil {
				slog.Error("Error determining local path for git repo", "url", source.Path, "error", err)
				continue
			}
			if err := gitsource.Sync(source.Path, localRepoPath); err != nil {
				slog.Error("Error syncing git repo", "url", source.Path, "error", err)
				continue
			}
			sourceToReconcile.Path = localRepoPath
			reconcileLocalSource(db, &sourceToReconcile)
		default:
			reconcileLocalSource(db, &sourceToReconcile)
		}
	}
	slog.Info("Sync process complete.")
	return nil
}

func reconcileLocalSource(db *storage.DB, source *storage.Source) {
	var reconcileErrors []error
	foundHashes := make(map[string]bool)
	var inserted int

	walkErr := filepath.WalkDir(source.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		doc, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			reconcileErrors = append(reconcileErrors, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}

		n, errs := reconcileQACards(db, source.ID, doc.Cards, foundHashes)
		inserted += n
		reconcileErrors = append(reconcileErrors, errs...)

		n, errs = reconcileLists(db, source.ID, doc.Lists, foundHashes)
		inserted += n
		reconcileErrors = append(reconcileErrors, errs...)
		return nil
	})

	if walkErr != nil {
		slog.Error("Error walking directory", "path", source.Path, "error", walkErr)
		return
	}

	dbCards, err := db.GetCardsBySourceID(source.ID)
	if err != nil {
		slog.Error("Error getting cards for source", "source_id", source.ID, "error", err)
		return
	}

	var orphanedCards int
	for _, dbCard := range dbCards {
		if !foundHashes[dbCard.ContentHash] {
			slog.Info("Orphaned card, deleting", "hash", dbCard.ContentHash)
			orphanedCards++
			if err := db.DeleteCardByHash(dbCard.ContentHash); err != nil {
				slog.Warn("Failed to delete orphaned card", "hash", dbCard.ContentHash, "error", err)
			}
		}
	}

	if err := db.UpdateSourceLastScanned(source.ID); err != nil {
		slog.Warn("Failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", source.Path,
		"inserted", inserted,
		"orphaned_deleted", orphanedCards,
		"errors", len(reconcileErrors),
	)
}

// reconcileQACards inserts hand-typed Q/A cards that are not yet in the
// bank. These are golden tickets: active from the moment they appear.
func reconcileQACards(db *storage.DB, sourceID int64, cards []parser.QA, foundHashes map[string]bool) (int, []error) {
	var inserted int
	var errs []error
	for _, qa := range cards {
		hash := fingerprint.Standard(qa.Question, qa.Answer)
		foundHashes[hash] = true

		existing, err := db.FindCardByHash(hash)
		if err != nil {
			errs = append(errs, fmt.Errorf("db check for %s: %w", hash, err))
			continue
		}
		if existing != nil {
			continue
		}

		slog.Info("New card found, inserting...", "hash", hash)
		card := domain.Card{
			ID:               uuid.NewString(),
			Front:            qa.Question,
			Back:             qa.Answer,
			Type:             domain.TypeStandard,
			ContentHash:      hash,
			SourceID:         sourceID,
			IsActive:         true,
			IsGoldenTicket:   true,
			Due:              time.Now(),
			Maturity:         domain.MaturityNew,
			ActivationStatus: domain.StatusActive,
		}
		if err := db.InsertCard(card); err != nil {
			errs = append(errs, fmt.Errorf("db insert for %s: %w", hash, err))
			continue
		}
		inserted++
	}
	return inserted, errs
}

// reconcileLists expands fact lists into banked overlapping-cloze
// cards. A list is regenerated only when any of its item hashes is
// missing, so untouched lists keep their card ids and therefore their
// exact shuffled context.
func reconcileLists(db *storage.DB, sourceID int64, lists []parser.List, foundHashes map[string]bool) (int, []error) {
	var inserted int
	var errs []error
	for _, list := range lists {
		hashes := make([]string, len(list.Items))
		missing := false
		for i, item := range list.Items {
			hashes[i] = fingerprint.List(list.Title, item, list.Items)
			foundHashes[hashes[i]] = true

			existing, err := db.FindCardByHash(hashes[i])
			if err != nil {
				errs = append(errs, fmt.Errorf("db check for %s: %w", hashes[i], err))
				continue
			}
			if existing == nil {
				missing = true
			}
		}
		if !missing {
			continue
		}

		slog.Info("New or changed list, generating cards", "title", list.Title, "items", len(list.Items))

		// Regeneration is all-or-nothing per list: clear any leftover
		// siblings first so a partially present list cannot end up with
		// duplicate rows or mixed parent list ids.
		for _, hash := range hashes {
			if err := db.DeleteCardByHash(hash); err != nil {
				errs = append(errs, fmt.Errorf("clearing stale card %s: %w", hash, err))
			}
		}

		cards, err := cloze.Generate(list.Items, list.Title)
		if err != nil {
			errs = append(errs, fmt.Errorf("generating list %q: %w", list.Title, err))
			continue
		}
		for i, card := range cards {
			card.ContentHash = hashes[i]
			card.SourceID = sourceID
			if err := db.InsertCard(card); err != nil {
				errs = append(errs, fmt.Errorf("db insert for %s: %w", card.ContentHash, err))
				continue
			}
			inserted++
		}
	}
	return inserted, errs
}

// gitURLToLocalPath maps a git URL (https or scp-style) to a stable
// checkout path under baseDir.
func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
