package storage

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/conorfennell/practicebank/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleCard() domain.Card {
	due := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	return domain.Card{
		ID:               "card-1",
		Front:            "Agents: {{c1::???}}, Diazepam, Midazolam",
		Back:             "Lorazepam",
		Type:             domain.TypeListCloze,
		ParentListID:     "list-1",
		ListPosition:     0,
		TargetItem:       "Lorazepam",
		ContextItems:     []string{"Diazepam", "Midazolam"},
		ContentHash:      "abc123",
		Stability:        3,
		Difficulty:       4,
		ScheduledDays:    3,
		Reps:             1,
		State:            2,
		Due:              due,
		IsActive:         true,
		Maturity:         domain.MaturityReviewing,
		ActivationStatus: domain.StatusActive,
	}
}

func TestInsertAndFindCard(t *testing.T) {
	db := openTestDB(t)

	if err := db.InsertCard(sampleCard()); err != nil {
		t.Fatalf("InsertCard failed: %v", err)
	}

	got, err := db.FindCardByID("card-1")
	if err != nil {
		t.Fatalf("FindCardByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("card not found after insert")
	}
	want := sampleCard()
	if got.Front != want.Front || got.Back != want.Back || got.Type != want.Type {
		t.Errorf("content mismatch: got %+v", got)
	}
	if got.ParentListID != "list-1" || got.TargetItem != "Lorazepam" {
		t.Errorf("list linkage mismatch: got %+v", got)
	}
	if !reflect.DeepEqual(got.ContextItems, want.ContextItems) {
		t.Errorf("context items = %v, want %v", got.ContextItems, want.ContextItems)
	}
	if !got.Due.Equal(want.Due) {
		t.Errorf("due = %v, want %v", got.Due, want.Due)
	}
	if got.Maturity != domain.MaturityReviewing || got.ActivationStatus != domain.StatusActive {
		t.Errorf("lifecycle mismatch: got %+v", got)
	}
	if got.LastReview != nil || got.RetiredAt != nil || got.SuspendedAt != nil {
		t.Errorf("expected nil optional timestamps, got %+v", got)
	}
}

func TestInsertCardsIsAtomic(t *testing.T) {
	db := openTestDB(t)

	a := sampleCard()
	a.ID = "sib-a"
	a.ContentHash = "h-a"
	b := sampleCard()
	b.ID = "sib-b"
	b.ContentHash = "h-b"

	if err := db.InsertCards([]domain.Card{a, b}); err != nil {
		t.Fatalf("InsertCards failed: %v", err)
	}

	// A batch with a duplicate id must fail and leave no new rows behind.
	c := sampleCard()
	c.ID = "sib-c"
	c.ContentHash = "h-c"
	dup := sampleCard()
	dup.ID = "sib-a"
	dup.ContentHash = "h-dup"

	if err := db.InsertCards([]domain.Card{c, dup}); err == nil {
		t.Fatal("expected error for duplicate id in batch")
	}
	if got, _ := db.FindCardByID("sib-c"); got != nil {
		t.Errorf("partial batch persisted: %+v", got)
	}
}

func TestFindCardMissingReturnsNil(t *testing.T) {
	db := openTestDB(t)
	got, err := db.FindCardByID("nope")
	if err != nil {
		t.Fatalf("FindCardByID failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing card, got %+v", got)
	}
}

func TestFindCardByHash(t *testing.T) {
	db := openTestDB(t)
	if err := db.InsertCard(sampleCard()); err != nil {
		t.Fatalf("InsertCard failed: %v", err)
	}
	got, err := db.FindCardByHash("abc123")
	if err != nil {
		t.Fatalf("FindCardByHash failed: %v", err)
	}
	if got == nil || got.ID != "card-1" {
		t.Errorf("expected card-1, got %+v", got)
	}
}

func TestApplyReviewCommitsCardAndLog(t *testing.T) {
	db := openTestDB(t)
	card := sampleCard()
	if err := db.InsertCard(card); err != nil {
		t.Fatalf("InsertCard failed: %v", err)
	}

	now := time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC)
	card.Stability = 4.2
	card.Reps = 2
	card.LastReview = &now
	card.Due = now.AddDate(0, 0, 4)
	log := domain.ReviewLog{
		ID:            "log-1",
		CardID:        card.ID,
		Rating:        3,
		Stability:     4.2,
		Difficulty:    4,
		State:         2,
		ScheduledDays: 4,
		Due:           card.Due,
		ReviewedAt:    now,
	}

	if err := db.ApplyReview(card, log); err != nil {
		t.Fatalf("ApplyReview failed: %v", err)
	}

	got, err := db.FindCardByID(card.ID)
	if err != nil {
		t.Fatalf("FindCardByID failed: %v", err)
	}
	if got.Reps != 2 || got.Stability != 4.2 {
		t.Errorf("card not updated: %+v", got)
	}
	if got.LastReview == nil || !got.LastReview.Equal(now) {
		t.Errorf("last review = %v, want %v", got.LastReview, now)
	}

	logs, err := db.GetReviewLogs(card.ID)
	if err != nil {
		t.Fatalf("GetReviewLogs failed: %v", err)
	}
	if len(logs) != 1 || logs[0].ID != "log-1" || logs[0].Rating != 3 {
		t.Errorf("logs = %+v, want the single appended record", logs)
	}
}

func TestApplyReviewIsAtomic(t *testing.T) {
	db := openTestDB(t)
	card := sampleCard()
	if err := db.InsertCard(card); err != nil {
		t.Fatalf("InsertCard failed: %v", err)
	}

	now := time.Now().UTC()
	log := domain.ReviewLog{ID: "log-1", CardID: card.ID, Rating: 3, Due: now, ReviewedAt: now}
	card.Reps = 2
	if err := db.ApplyReview(card, log); err != nil {
		t.Fatalf("first ApplyReview failed: %v", err)
	}

	// Reusing the log id makes the insert fail; the card update in the
	// same transaction must roll back with it.
	card.Reps = 99
	if err := db.ApplyReview(card, log); err == nil {
		t.Fatal("expected error for duplicate log id")
	}

	got, err := db.FindCardByID(card.ID)
	if err != nil {
		t.Fatalf("FindCardByID failed: %v", err)
	}
	if got.Reps != 2 {
		t.Errorf("reps = %d after failed review, want 2 (rolled back)", got.Reps)
	}
}

func TestGetDueCards(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	due := sampleCard()
	due.ID = "due"
	due.ContentHash = "h-due"
	due.Due = now.AddDate(0, 0, -1)

	future := sampleCard()
	future.ID = "future"
	future.ContentHash = "h-future"
	future.Due = now.AddDate(0, 0, 5)

	inactive := sampleCard()
	inactive.ID = "inactive"
	inactive.ContentHash = "h-inactive"
	inactive.Due = now.AddDate(0, 0, -2)
	inactive.IsActive = false

	for _, c := range []domain.Card{due, future, inactive} {
		if err := db.InsertCard(c); err != nil {
			t.Fatalf("InsertCard(%s) failed: %v", c.ID, err)
		}
	}

	cards, err := db.GetDueCards(now)
	if err != nil {
		t.Fatalf("GetDueCards failed: %v", err)
	}
	if len(cards) != 1 || cards[0].ID != "due" {
		t.Errorf("due cards = %+v, want only the active overdue card", cards)
	}
}

func TestGetCardsByParentList(t *testing.T) {
	db := openTestDB(t)
	for i, id := range []string{"s2", "s0", "s1"} {
		c := sampleCard()
		c.ID = id
		c.ContentHash = "h-" + id
		c.ListPosition = 2 - i
		if err := db.InsertCard(c); err != nil {
			t.Fatalf("InsertCard failed: %v", err)
		}
	}

	cards, err := db.GetCardsByParentList("list-1")
	if err != nil {
		t.Fatalf("GetCardsByParentList failed: %v", err)
	}
	if len(cards) != 3 {
		t.Fatalf("expected 3 siblings, got %d", len(cards))
	}
	for i, c := range cards {
		if c.ListPosition != i {
			t.Errorf("position %d holds card with list_position %d", i, c.ListPosition)
		}
	}
}

func TestSourceRoundTrip(t *testing.T) {
	db := openTestDB(t)

	id, err := db.InsertSource("/notes", "local")
	if err != nil {
		t.Fatalf("InsertSource failed: %v", err)
	}

	s, err := db.FindSourceByPath("/notes")
	if err != nil {
		t.Fatalf("FindSourceByPath failed: %v", err)
	}
	if s == nil || s.ID != id || s.Type != "local" {
		t.Fatalf("source = %+v", s)
	}

	if err := db.UpdateSourceLastScanned(id); err != nil {
		t.Fatalf("UpdateSourceLastScanned failed: %v", err)
	}
	sources, err := db.GetAllSources()
	if err != nil {
		t.Fatalf("GetAllSources failed: %v", err)
	}
	if len(sources) != 1 || !sources[0].LastScanned.Valid {
		t.Errorf("sources = %+v, want one scanned source", sources)
	}

	// Deleting a source removes its cards with it.
	card := sampleCard()
	card.SourceID = id
	if err := db.InsertCard(card); err != nil {
		t.Fatalf("InsertCard failed: %v", err)
	}
	if err := db.DeleteSource(id); err != nil {
		t.Fatalf("DeleteSource failed: %v", err)
	}
	if got, _ := db.FindCardByID(card.ID); got != nil {
		t.Errorf("card survived source deletion: %+v", got)
	}
}
