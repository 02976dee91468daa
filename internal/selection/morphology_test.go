package selection

import "testing"

// squareMask returns a w*h mask with a filled square selected.
func squareMask(w, h, x0, y0, size int) []uint8 {
	mask := make([]uint8, w*h)
	for y := y0; y < y0+size; y++ {
		for x := x0; x < x0+size; x++ {
			mask[y*w+x] = 255
		}
	}
	return mask
}

func count(mask []uint8) int {
	n := 0
	for _, v := range mask {
		if Selected(v) {
			n++
		}
	}
	return n
}

func TestDilateGrows(t *testing.T) {
	mask := squareMask(20, 20, 8, 8, 4)
	before := count(mask)
	Dilate(mask, 20, 20, 1)
	if after := count(mask); after <= before {
		t.Errorf("dilate: %d -> %d, want growth", before, after)
	}
	// A 4-neighbor of the square joins, a diagonal-only neighbor does not.
	if !Selected(mask[8*20+7]) {
		t.Error("edge neighbor not dilated")
	}
	if Selected(mask[7*20+7]) {
		t.Error("diagonal neighbor dilated by 4-connected step")
	}
}

func TestErodeShrinks(t *testing.T) {
	mask := squareMask(20, 20, 8, 8, 4)
	before := count(mask)
	Erode(mask, 20, 20, 1)
	after := count(mask)
	if after >= before {
		t.Errorf("erode: %d -> %d, want shrink", before, after)
	}
	// 4x4 square erodes to its 2x2 core.
	if after != 4 {
		t.Errorf("eroded count = %d, want 4", after)
	}
}

func TestClosingNeverShrinksBelowOriginal(t *testing.T) {
	// erode(dilate(m, k), k) is a superset of m.
	original := squareMask(30, 30, 10, 10, 6)
	mask := make([]uint8, len(original))
	copy(mask, original)

	for _, k := range []int{1, 2, 3} {
		copy(mask, original)
		Dilate(mask, 30, 30, k)
		Erode(mask, 30, 30, k)
		for i := range original {
			if Selected(original[i]) && !Selected(mask[i]) {
				t.Fatalf("k=%d: closing lost original pixel %d", k, i)
			}
		}
	}
}

func TestOpeningNeverExceedsOriginal(t *testing.T) {
	// dilate(erode(m, k), k) is a subset of m.
	original := squareMask(30, 30, 10, 10, 6)
	mask := make([]uint8, len(original))

	for _, k := range []int{1, 2} {
		copy(mask, original)
		Erode(mask, 30, 30, k)
		Dilate(mask, 30, 30, k)
		for i := range original {
			if Selected(mask[i]) && !Selected(original[i]) {
				t.Fatalf("k=%d: opening gained pixel %d outside original", k, i)
			}
		}
	}
}

func TestAdjustNegativeErodes(t *testing.T) {
	mask := squareMask(20, 20, 8, 8, 4)
	Adjust(mask, 20, 20, -1)
	if count(mask) != 4 {
		t.Errorf("Adjust(-1) count = %d, want 4", count(mask))
	}
}

func TestFeatherSoftensBoundary(t *testing.T) {
	mask := squareMask(30, 30, 10, 10, 10)
	Feather(mask, 30, 30, 3)

	// Interior stays near full, exterior near zero, boundary in between.
	if mask[15*30+15] < 200 {
		t.Errorf("interior value = %d, want near 255", mask[15*30+15])
	}
	if mask[2*30+2] != 0 {
		t.Errorf("far exterior value = %d, want 0", mask[2*30+2])
	}
	edge := mask[15*30+10]
	if edge == 0 || edge == 255 {
		t.Errorf("boundary value = %d, want a soft gradient", edge)
	}
}

func TestPruneRemovesSmallComponents(t *testing.T) {
	mask := squareMask(30, 30, 5, 5, 6) // 36 px component
	mask[20*30+20] = 255                // isolated speck
	mask[25*30+25] = 255
	mask[25*30+26] = 255 // 2 px component

	Prune(mask, 30, 30, 10)

	if count(mask) != 36 {
		t.Errorf("count after prune = %d, want 36", count(mask))
	}
	if Selected(mask[20*30+20]) {
		t.Error("isolated speck survived prune")
	}
}

func TestPruneKeepsLargeComponents(t *testing.T) {
	mask := squareMask(30, 30, 5, 5, 6)
	Prune(mask, 30, 30, 36)
	if count(mask) != 36 {
		t.Errorf("exactly-threshold component removed, count = %d", count(mask))
	}
}
