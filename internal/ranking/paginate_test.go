package ranking

import (
	"fmt"
	"math"
	"testing"

	"villa-offers-api/internal/models"
)

func champions(n int) []models.ChampionKey {
	keys := make([]models.ChampionKey, 0, n)
	for i := 0; i < n; i++ {
		keys = append(keys, models.ChampionKey{
			VillaID:     fmt.Sprintf("V%d", i),
			CheckinDate: "2025-06-01",
			Score:       float64(100 - i),
		})
	}
	return keys
}

func TestPaginate_FirstPage(t *testing.T) {
	page := Paginate(champions(5), 0, 3)

	if len(page.Keys) != 3 {
		t.Fatalf("Expected 3 keys, got %d", len(page.Keys))
	}
	if page.TotalAvailable != 5 {
		t.Errorf("Expected totalAvailable 5, got %d", page.TotalAvailable)
	}
	if !page.HasMore {
		t.Error("Expected hasMore to be true")
	}
	for i, key := range page.Keys {
		if key.VillaID != fmt.Sprintf("V%d", i) {
			t.Errorf("Expected V%d at position %d, got %s", i, i, key.VillaID)
		}
	}
}

func TestPaginate_LastPage(t *testing.T) {
	page := Paginate(champions(5), 3, 3)

	if len(page.Keys) != 2 {
		t.Fatalf("Expected 2 keys, got %d", len(page.Keys))
	}
	if page.HasMore {
		t.Error("Expected hasMore to be false")
	}
}

func TestPaginate_OffsetPastEnd(t *testing.T) {
	page := Paginate(champions(2), 10, 3)

	if len(page.Keys) != 0 {
		t.Fatalf("Expected no keys, got %d", len(page.Keys))
	}
	if page.TotalAvailable != 2 {
		t.Errorf("Expected totalAvailable 2, got %d", page.TotalAvailable)
	}
	if page.HasMore {
		t.Error("Expected hasMore to be false")
	}
}

func TestPaginate_Empty(t *testing.T) {
	page := Paginate(nil, 0, 3)

	if len(page.Keys) != 0 || page.TotalAvailable != 0 || page.HasMore {
		t.Errorf("Expected empty page, got %+v", page)
	}
	if page.Keys == nil {
		t.Error("Expected non-nil keys slice")
	}
}

func TestPaginate_DropsDuplicateSlots(t *testing.T) {
	input := []models.ChampionKey{
		{VillaID: "V1", CheckinDate: "2025-06-01", Score: 30},
		{VillaID: "V2", CheckinDate: "2025-06-01", Score: 25},
		{VillaID: "V1", CheckinDate: "2025-06-01", Score: 20},
		{VillaID: "V1", CheckinDate: "2025-06-02", Score: 10},
	}

	page := Paginate(input, 0, 10)

	if page.TotalAvailable != 3 {
		t.Fatalf("Expected 3 unique slots, got %d", page.TotalAvailable)
	}
	if page.Keys[0].Score != 30 {
		t.Errorf("Expected first-seen V1 instance with score 30, got %v", page.Keys[0].Score)
	}
	if page.Keys[2].CheckinDate != "2025-06-02" {
		t.Errorf("Expected V1 2025-06-02 last, got %+v", page.Keys[2])
	}
}

func TestPaginate_PagesCoverAllSlotsOnce(t *testing.T) {
	all := champions(11)
	// upstream duplicates must not leak into any page
	all = append(all, all[3], all[7])

	for _, limit := range []int{1, 2, 3, 4, 5, 11, 20} {
		seen := map[string]int{}
		for offset := 0; ; offset += limit {
			page := Paginate(all, offset, limit)
			for _, key := range page.Keys {
				seen[key.SlotKey()]++
			}
			if !page.HasMore {
				break
			}
		}

		if len(seen) != 11 {
			t.Errorf("limit %d: expected 11 slots across pages, got %d", limit, len(seen))
		}
		for slot, n := range seen {
			if n != 1 {
				t.Errorf("limit %d: slot %s returned %d times", limit, slot, n)
			}
		}
	}
}

func TestPaginate_HasMoreMatchesBounds(t *testing.T) {
	all := champions(7)
	for offset := 0; offset <= 9; offset++ {
		for limit := 1; limit <= 9; limit++ {
			page := Paginate(all, offset, limit)
			want := offset+limit < 7
			if page.HasMore != want {
				t.Errorf("offset %d limit %d: expected hasMore %v, got %v", offset, limit, want, page.HasMore)
			}
		}
	}
}

func TestPaginate_OffsetPastEndNearMaxInt(t *testing.T) {
	all := champions(2)
	for _, offset := range []int{math.MaxInt, math.MaxInt - 1, math.MaxInt - 3} {
		page := Paginate(all, offset, 3)
		if len(page.Keys) != 0 {
			t.Errorf("offset %d: expected no keys, got %d", offset, len(page.Keys))
		}
		if page.HasMore {
			t.Errorf("offset %d: expected hasMore false", offset)
		}
		if page.TotalAvailable != 2 {
			t.Errorf("offset %d: expected totalAvailable 2, got %d", offset, page.TotalAvailable)
		}
	}

	if page := Paginate(all, 0, math.MaxInt); page.HasMore || len(page.Keys) != 2 {
		t.Errorf("Expected both keys and no more pages, got %d keys hasMore=%v", len(page.Keys), page.HasMore)
	}
	if page := Paginate(all, 1, math.MaxInt); page.HasMore || len(page.Keys) != 1 {
		t.Errorf("Expected one key and no more pages, got %d keys hasMore=%v", len(page.Keys), page.HasMore)
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		limit, def, max, want int
	}{
		{0, 3, 50, 3},
		{-4, 3, 50, 3},
		{10, 3, 50, 10},
		{500, 3, 50, 50},
		{500, 3, 0, 500},
	}

	for _, tt := range tests {
		if got := ClampLimit(tt.limit, tt.def, tt.max); got != tt.want {
			t.Errorf("ClampLimit(%d, %d, %d) = %d, want %d", tt.limit, tt.def, tt.max, got, tt.want)
		}
	}
}
