package outfit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestColorHarmonyAchromatic(t *testing.T) {
	others := []string{"black", "white", "gray", "red", "navy", "pink", "mystery", ""}
	for _, neutral := range []string{"black", "white", "gray"} {
		for _, other := range others {
			require.Equal(t, 0.8, ColorHarmony(neutral, other), "%s/%s", neutral, other)
			require.Equal(t, 0.8, ColorHarmony(other, neutral), "%s/%s", other, neutral)
		}
	}
}

func TestColorHarmonyIdentical(t *testing.T) {
	for color := range hues {
		require.Equal(t, 0.9, ColorHarmony(color, color), color)
	}
}

func TestColorHarmonyTiers(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"red", "skyblue", 0.95},
		{"orange", "blue", 0.95},
		{"red", "yellow", 0.85},
		{"red", "green", 0.75},
		{"yellow", "skyblue", 0.75},
		{"red", "khaki", 0.6},
		{"red", "purple", 0.6}, // 270 wraps to 90
		{"red", "navy", 0.75},  // 240 wraps to 120
		{"yellow", "blue", 0.4},
		{"Red", " YELLOW ", 0.85},
		{"red", "plaid", 0.5},
		{"", "red", 0.5},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ColorHarmony(tc.a, tc.b), "%s/%s", tc.a, tc.b)
	}
}

func TestStyleMatch(t *testing.T) {
	require.Equal(t, 0.3, StyleMatch(nil, nil))
	require.Equal(t, 0.3, StyleMatch([]string{"casual"}, nil))
	require.Equal(t, 0.3, StyleMatch([]string{"casual"}, []string{"formal"}))
	require.InDelta(t, 1.0, StyleMatch([]string{"casual", "street"}, []string{"STREET", "casual"}), 1e-9)
	require.InDelta(t, 0.3+0.7/3, StyleMatch([]string{"casual", "street"}, []string{"casual", "minimal"}), 1e-9)
}

func TestFormalityMatch(t *testing.T) {
	require.Equal(t, 1.0, FormalityMatch(0.4, 0.4))
	require.InDelta(t, 0.6, FormalityMatch(0.2, 0.4), 1e-9)
	require.Equal(t, 0.0, FormalityMatch(0.0, 0.5))
	require.Equal(t, 0.0, FormalityMatch(1.0, 0.1))
}

func TestSeasonMatch(t *testing.T) {
	require.Equal(t, 0.5, SeasonMatch(nil, []string{"SUMMER"}))
	require.Equal(t, 1.0, SeasonMatch([]string{"summer", "spring"}, []string{"SPRING"}))
	require.Equal(t, 0.3, SeasonMatch([]string{"WINTER"}, []string{"SUMMER"}))
}

func TestScoreSymmetric(t *testing.T) {
	items := []Item{
		{ID: "1", ColorPrimary: "navy", StyleTags: []string{"casual", "minimal"}, Formality: ptr(0.3), SeasonTags: []string{"FALL"}},
		{ID: "2", ColorPrimary: "beige", StyleTags: []string{"minimal"}, Formality: ptr(0.7)},
		{ID: "3", ColorPrimary: "pink", SeasonTags: []string{"SUMMER", "SPRING"}},
		{ID: "4", ColorPrimary: "black", StyleTags: []string{"street"}, Formality: ptr(0.9), SeasonTags: []string{"WINTER"}},
	}
	for _, a := range items {
		for _, b := range items {
			s1, r1 := Score(a, b)
			s2, r2 := Score(b, a)
			require.Equal(t, s1, s2, "%s/%s", a.ID, b.ID)
			require.Equal(t, r1, r2)
			require.GreaterOrEqual(t, s1, 0.0)
			require.LessOrEqual(t, s1, 1.0)
		}
	}
}

func TestScoreBlackPairUpperBand(t *testing.T) {
	top := Item{ID: "t", Slot: SlotTop, ColorPrimary: "black", StyleTags: []string{"casual"}, Formality: ptr(0.4)}
	bottom := Item{ID: "b", Slot: SlotBottom, ColorPrimary: "black", StyleTags: []string{"casual"}, Formality: ptr(0.4)}

	require.Equal(t, 0.8, ColorHarmony(top.ColorPrimary, bottom.ColorPrimary))
	score, reasons := Score(top, bottom)
	require.Greater(t, score, 0.8)
	require.Equal(t, []string{ReasonColor, ReasonStyle, ReasonFormality}, reasons)
}

func TestScoreFallbackReason(t *testing.T) {
	top := Item{ColorPrimary: "red", StyleTags: []string{"formal"}, Formality: ptr(1), SeasonTags: []string{"WINTER"}}
	bottom := Item{ColorPrimary: "khaki", StyleTags: []string{"sport"}, Formality: ptr(0), SeasonTags: []string{"SUMMER"}}
	_, reasons := Score(top, bottom)
	require.Equal(t, []string{ReasonBalanced}, reasons)
}

func TestMissingFormalityDefaults(t *testing.T) {
	require.Equal(t, 0.5, Item{}.FormalityOrDefault())
	require.Equal(t, 0.9, Item{Formality: ptr(0.9)}.FormalityOrDefault())
}
