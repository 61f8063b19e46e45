package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreNestedPath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}

func TestStoreSaveAndRetrieve(t *testing.T) {
	store := openTestStore(t)

	for _, score := range []int{10, 5, 20} {
		if _, err := store.SaveScore("flappy", score); err != nil {
			t.Fatalf("SaveScore() failed: %v", err)
		}
	}
	if _, err := store.SaveScore("other", 50); err != nil {
		t.Fatalf("SaveScore() failed: %v", err)
	}

	scores, err := store.TopScores("flappy", 10)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("Expected 3 scores, got %d", len(scores))
	}

	expected := []int{20, 10, 5}
	for i, want := range expected {
		if scores[i].Score != want {
			t.Errorf("scores[%d] = %d, expected %d", i, scores[i].Score, want)
		}
		if scores[i].GameID != "flappy" {
			t.Errorf("scores[%d].GameID = %q, expected flappy", i, scores[i].GameID)
		}
	}
	if scores[0].CreatedAt.IsZero() {
		t.Error("CreatedAt was not populated")
	}
}

func TestStoreTopScoresLimit(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 5; i++ {
		store.SaveScore("flappy", (i+1)*10)
	}

	scores, err := store.TopScores("flappy", 3)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("Expected 3 scores with limit, got %d", len(scores))
	}
	if scores[0].Score != 50 || scores[1].Score != 40 || scores[2].Score != 30 {
		t.Errorf("Scores not in expected order: %v", scores)
	}

	// Non-positive limit falls back to 10
	all, err := store.TopScores("flappy", 0)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("Expected 5 scores with default limit, got %d", len(all))
	}
}

func TestStoreHighScore(t *testing.T) {
	store := openTestStore(t)

	high, err := store.HighScore("flappy")
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 0 {
		t.Errorf("Expected high score of 0 for empty game, got %d", high)
	}

	store.SaveScore("flappy", 7)
	store.SaveScore("flappy", 31)
	store.SaveScore("flappy", 12)

	high, err = store.HighScore("flappy")
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 31 {
		t.Errorf("Expected high score of 31, got %d", high)
	}
}

func TestStoreClearScores(t *testing.T) {
	store := openTestStore(t)

	store.SaveScore("flappy", 1)
	store.SaveScore("flappy", 2)
	store.SaveScore("other", 3)

	if err := store.ClearScores("flappy"); err != nil {
		t.Fatalf("ClearScores() failed: %v", err)
	}

	flappyScores, _ := store.TopScores("flappy", 10)
	if len(flappyScores) != 0 {
		t.Errorf("Expected 0 flappy scores after clear, got %d", len(flappyScores))
	}

	otherScores, _ := store.TopScores("other", 10)
	if len(otherScores) != 1 {
		t.Errorf("Other scores should not be affected by clearing flappy")
	}
}

func TestStoreEpisodes(t *testing.T) {
	store := openTestStore(t)

	episodes := []Episode{
		{EnvID: "FlappyBird-v0", Agent: "random", Seed: 1, Score: 0, Steps: 32},
		{EnvID: "FlappyBird-v0", Agent: "heuristic", Seed: 2, Score: 4, Steps: 400},
		{EnvID: "FlappyBird-v0", Agent: "heuristic", Seed: 3, Score: 6, Steps: 520},
		{EnvID: "FlappyBird-kinematic-v0", Agent: "random", Seed: 4, Score: 1, Steps: 120},
	}
	for _, ep := range episodes {
		if _, err := store.SaveEpisode(ep); err != nil {
			t.Fatalf("SaveEpisode() failed: %v", err)
		}
	}

	recent, err := store.RecentEpisodes("FlappyBird-v0", 2)
	if err != nil {
		t.Fatalf("RecentEpisodes() failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 recent episodes, got %d", len(recent))
	}
	if recent[0].Seed != 3 || recent[1].Seed != 2 {
		t.Errorf("RecentEpisodes() not newest first: %+v", recent)
	}

	all, err := store.RecentEpisodes("", 0)
	if err != nil {
		t.Fatalf("RecentEpisodes() failed: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("Expected 4 episodes across envs, got %d", len(all))
	}

	stats, err := store.EpisodeStats()
	if err != nil {
		t.Fatalf("EpisodeStats() failed: %v", err)
	}
	if len(stats) != 3 {
		t.Fatalf("Expected 3 env/agent groups, got %d", len(stats))
	}
	// Ordered by env then agent
	h := stats[1]
	if h.EnvID != "FlappyBird-v0" || h.Agent != "heuristic" {
		t.Fatalf("stats[1] = %+v, expected FlappyBird-v0/heuristic", h)
	}
	if h.Episodes != 2 || h.Best != 6 || h.AvgScore != 5 || h.AvgSteps != 460 {
		t.Errorf("heuristic stats = %+v", h)
	}

	best, err := store.BestEpisode("FlappyBird-v0")
	if err != nil {
		t.Fatalf("BestEpisode() failed: %v", err)
	}
	if best.Score != 6 || best.Agent != "heuristic" {
		t.Errorf("BestEpisode() = %+v, expected score 6 by heuristic", best)
	}
}

func TestStoreBestEpisodeEmpty(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.BestEpisode("FlappyBird-v0"); !errors.Is(err, ErrNoEpisodes) {
		t.Errorf("BestEpisode() error = %v, expected ErrNoEpisodes", err)
	}
}

func TestStoreConcurrentEpisodes(t *testing.T) {
	store := openTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			if _, err := store.SaveEpisode(Episode{EnvID: "e", Agent: "a", Seed: seed}); err != nil {
				t.Errorf("SaveEpisode() failed: %v", err)
			}
		}(int64(i))
	}
	wg.Wait()

	all, err := store.RecentEpisodes("e", 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 8 {
		t.Errorf("Expected 8 episodes, got %d", len(all))
	}
}
