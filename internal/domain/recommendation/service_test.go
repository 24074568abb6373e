package recommendation

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/codify/internal/domain/forecast"
	"github.com/yanqian/codify/internal/domain/outfit"
	"github.com/yanqian/codify/internal/domain/region"
	"github.com/yanqian/codify/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/codify/pkg/errors"
)

func TestRecommendFallsBackWhenLLMFails(t *testing.T) {
	chat := &stubChat{err: errors.New("boom")}
	svc := newTestService(chat, newStubCache(), &stubForecaster{}, &stubWardrobe{items: wardrobe()}, nil)

	resp, err := svc.Recommend(context.Background(), Request{UserID: 1, Count: 2})
	require.NoError(t, err)
	require.Equal(t, StatusOK, resp.Status)
	require.Equal(t, MethodRuleBased, resp.Method)
	require.Len(t, resp.Outfits, 2)
	for _, o := range resp.Outfits {
		require.NotEmpty(t, o.Reasons)
		require.Equal(t, strings.Join(o.Reasons, ", "), o.Reasoning)
		require.Contains(t, o.StyleDescription, " & ")
	}
	require.GreaterOrEqual(t, resp.Outfits[0].Score, resp.Outfits[1].Score)
	require.Equal(t, 1, chat.callCount())
}

func TestRecommendWithoutChatClientIsRuleBased(t *testing.T) {
	svc := NewService(Config{}, region.NewResolver(), &stubForecaster{}, &stubWardrobe{items: wardrobe()}, newStubCache(), nil, nil, newTestLogger())

	resp, err := svc.Recommend(context.Background(), Request{UserID: 1})
	require.NoError(t, err)
	require.Equal(t, MethodRuleBased, resp.Method)
	require.Len(t, resp.Outfits, 1)
}

func TestRecommendParsesFencedLLMOutput(t *testing.T) {
	chat := &stubChat{content: "Here you go:\n```json\n[{\"top_id\":\"t2\",\"bottom_id\":\"b1\",\"score\":\"87\",\"reasoning\":\"깔끔한 조합\",\"style_description\":\"셔츠 & 슬랙스\"}]\n```"}
	svc := newTestService(chat, newStubCache(), &stubForecaster{}, &stubWardrobe{items: wardrobe()}, nil)

	resp, err := svc.Recommend(context.Background(), Request{UserID: 1, Count: 1, Message: "회사 출근"})
	require.NoError(t, err)
	require.Equal(t, MethodLLM, resp.Method)
	require.Len(t, resp.Outfits, 1)
	require.Equal(t, "t2", resp.Outfits[0].Top.ID)
	require.Equal(t, "b1", resp.Outfits[0].Bottom.ID)
	require.Equal(t, 0.87, resp.Outfits[0].Score)
	require.Equal(t, "깔끔한 조합", resp.Outfits[0].Reasoning)
	require.Equal(t, "셔츠 & 슬랙스", resp.Outfits[0].StyleDescription)
	require.NotNil(t, resp.TokenUsage)

	sent := chat.lastRequest()
	require.Contains(t, sent.Messages[0].Content, "top_id")
	require.Contains(t, sent.Messages[1].Content, "회사 출근")
	require.Contains(t, sent.Messages[1].Content, `"id":"t1"`)
}

func TestRecommendTopsUpShortLLMAnswer(t *testing.T) {
	chat := &stubChat{content: `{"recommendations":[{"top_id":"t1","bottom_id":"b2","score":0.9,"reasoning":"좋음"},{"top_id":"t9","bottom_id":"b1","score":1}]}`}
	svc := newTestService(chat, nil, &stubForecaster{}, &stubWardrobe{items: wardrobe()}, nil)

	resp, err := svc.Recommend(context.Background(), Request{UserID: 1, Count: 3})
	require.NoError(t, err)
	require.Equal(t, MethodLLM, resp.Method)
	require.Len(t, resp.Outfits, 3)
	require.Equal(t, "t1", resp.Outfits[0].Top.ID)
	require.Equal(t, "b2", resp.Outfits[0].Bottom.ID)
	for _, o := range resp.Outfits[1:] {
		require.NotEqual(t, "t9", o.Top.ID)
		require.NotEmpty(t, o.Reasoning)
	}
}

func TestRecommendUsesCacheOnSecondCall(t *testing.T) {
	chat := &stubChat{content: `[{"top_id":"t1","bottom_id":"b1","score":0.8,"reasoning":"무난"}]`}
	cache := newStubCache()
	svc := newTestService(chat, cache, &stubForecaster{}, &stubWardrobe{items: wardrobe()}, nil)
	req := Request{UserID: 1, Count: 1, Message: "데이트"}

	first, err := svc.Recommend(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.Cached)

	second, err := svc.Recommend(context.Background(), req)
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.Equal(t, MethodLLM, second.Method)
	require.Equal(t, first.Outfits[0].Top.ID, second.Outfits[0].Top.ID)
	require.Equal(t, "무난", second.Outfits[0].Reasoning)
	require.Equal(t, 1, chat.callCount())

	_, err = svc.Recommend(context.Background(), Request{UserID: 1, Count: 1, Message: "등산"})
	require.NoError(t, err)
	require.Equal(t, 2, chat.callCount())
}

func TestRecommendDiscardsCacheEntryWithUnknownItem(t *testing.T) {
	chat := &stubChat{content: `[{"top_id":"t1","bottom_id":"b1","score":0.8}]`}
	cache := newStubCache()
	svc := newTestService(chat, cache, &stubForecaster{}, &stubWardrobe{items: wardrobe()}, nil)
	req := Request{UserID: 1, Count: 1}

	_, err := svc.Recommend(context.Background(), req)
	require.NoError(t, err)
	cache.corrupt("ghost")

	resp, err := svc.Recommend(context.Background(), req)
	require.NoError(t, err)
	require.False(t, resp.Cached)
	require.Equal(t, 2, chat.callCount())
	require.Equal(t, 1, cache.deletes)
}

func TestRecommendInsufficientWardrobe(t *testing.T) {
	items := []outfit.Item{{ID: "t1", Slot: outfit.SlotTop, Category: "셔츠"}}
	chat := &stubChat{}
	svc := newTestService(chat, newStubCache(), &stubForecaster{}, &stubWardrobe{items: items}, nil)

	resp, err := svc.Recommend(context.Background(), Request{UserID: 1})
	require.NoError(t, err)
	require.Equal(t, StatusInsufficientWardrobe, resp.Status)
	require.Equal(t, "옷장에 상의 또는 하의가 충분하지 않습니다.", resp.Message)
	require.Empty(t, resp.Outfits)
	require.Zero(t, chat.callCount())
}

func TestRecommendAsksForClarification(t *testing.T) {
	forecaster := &stubForecaster{}
	wardrobeRepo := &stubWardrobe{items: wardrobe()}
	svc := newTestService(&stubChat{}, nil, forecaster, wardrobeRepo, nil)

	resp, err := svc.Recommend(context.Background(), Request{UserID: 1, Region: "광주"})
	require.NoError(t, err)
	require.Equal(t, StatusNeedsClarification, resp.Status)
	require.Equal(t, "광주광역시야, 경기도 광주시야?", resp.ClarifyingQuestion)
	require.Zero(t, forecaster.calls)
	require.Zero(t, wardrobeRepo.calls)

	resp, err = svc.Recommend(context.Background(), Request{UserID: 1, Region: "광주", Answer: "전라도 광역시"})
	require.NoError(t, err)
	require.Equal(t, StatusOK, resp.Status)
	require.Equal(t, "11F20501", forecaster.lastPlace.RegionID)
}

func TestRecommendProceedsWhenWeatherUnavailable(t *testing.T) {
	forecaster := &stubForecaster{}
	svc := newTestService(&stubChat{err: errors.New("down")}, nil, forecaster, &stubWardrobe{items: wardrobe()}, nil)

	resp, err := svc.Recommend(context.Background(), Request{UserID: 1, Region: "서울"})
	require.NoError(t, err)
	require.Equal(t, StatusOK, resp.Status)
	require.Nil(t, resp.Weather)
	require.Equal(t, "날씨 정보를 아직 가져올 수 없습니다", resp.WeatherUnavailableReason)
	require.NotEmpty(t, resp.Outfits)

	resp, err = svc.Recommend(context.Background(), Request{UserID: 1, Region: "도쿄"})
	require.NoError(t, err)
	require.Contains(t, resp.WeatherUnavailableReason, "지원하지 않습니다")
	require.NotEmpty(t, resp.Outfits)
}

func TestRecommendFiltersBySeasonFromWeather(t *testing.T) {
	forecaster := &stubForecaster{record: weatherRecord(18, 27)}
	items := append(wardrobe(), outfit.Item{ID: "t-winter", Slot: outfit.SlotTop, Category: "패딩", ColorPrimary: "black", SeasonTags: []string{outfit.SeasonWinter}})
	svc := newTestService(&stubChat{err: errors.New("down")}, nil, forecaster, &stubWardrobe{items: items}, nil)

	resp, err := svc.Recommend(context.Background(), Request{UserID: 1, Region: "서울", Count: 10})
	require.NoError(t, err)
	require.NotNil(t, resp.Weather)
	require.Equal(t, "서울특별시 기온 18°C ~ 27°C (여름 날씨)", resp.Weather.Text)
	require.Equal(t, []string{outfit.SeasonSummer}, resp.Weather.Seasons)
	for _, o := range resp.Outfits {
		require.NotEqual(t, "t-winter", o.Top.ID)
	}
}

func TestRecommendLogsSwappedCoordinates(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	forecaster := &stubForecaster{record: weatherRecord(3, 9)}
	svc := newTestService(&stubChat{err: errors.New("down")}, nil, forecaster, &stubWardrobe{items: wardrobe()}, logger)

	lat, lon := 126.978, 37.566
	resp, err := svc.Recommend(context.Background(), Request{UserID: 1, Latitude: &lat, Longitude: &lon})
	require.NoError(t, err)
	require.Contains(t, buf.String(), "transposed")
	require.NotNil(t, forecaster.lastPlace.Grid)
	require.Equal(t, region.GridCell{X: 60, Y: 127}, *forecaster.lastPlace.Grid)
	require.Contains(t, resp.Weather.Text, "겨울 날씨")
}

func TestRecommendValidatesInput(t *testing.T) {
	svc := newTestService(&stubChat{}, nil, &stubForecaster{}, &stubWardrobe{items: wardrobe()}, nil)

	_, err := svc.Recommend(context.Background(), Request{Count: -1})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	lat := 37.5
	_, err = svc.Recommend(context.Background(), Request{Latitude: &lat})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = svc.Recommend(context.Background(), Request{Date: "next week"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestRecommendWrapsWardrobeErrors(t *testing.T) {
	svc := newTestService(&stubChat{}, nil, &stubForecaster{}, &stubWardrobe{err: errors.New("db down")}, nil)

	_, err := svc.Recommend(context.Background(), Request{UserID: 1})
	require.True(t, apperrors.IsCode(err, apperrors.CodeWardrobeError))
}

func TestRecommendAssignsIDsToRequestItems(t *testing.T) {
	items := []outfit.Item{
		{Slot: outfit.SlotTop, Category: "티셔츠", ColorPrimary: "white"},
		{Slot: outfit.SlotBottom, Category: "청바지", ColorPrimary: "blue"},
	}
	wardrobeRepo := &stubWardrobe{}
	svc := newTestService(&stubChat{err: errors.New("down")}, nil, &stubForecaster{}, wardrobeRepo, nil)

	resp, err := svc.Recommend(context.Background(), Request{Items: items})
	require.NoError(t, err)
	require.Len(t, resp.Outfits, 1)
	assigned := withIDs(items)
	require.Equal(t, assigned[0].ID, resp.Outfits[0].Top.ID)
	require.Equal(t, assigned[1].ID, resp.Outfits[0].Bottom.ID)
	require.True(t, strings.HasPrefix(assigned[0].ID, "item-"))
	require.NotEqual(t, assigned[0].ID, assigned[1].ID)
	require.Zero(t, wardrobeRepo.calls)
}

func TestWithIDsIsStableAndContentBased(t *testing.T) {
	tee := outfit.Item{Slot: outfit.SlotTop, Category: "티셔츠", ColorPrimary: "white", StyleTags: []string{"casual", "basic"}}
	reordered := tee
	reordered.StyleTags = []string{"Basic", "casual"}
	jacket := outfit.Item{Slot: outfit.SlotTop, Category: "패딩", ColorPrimary: "red"}

	first := withIDs([]outfit.Item{tee, jacket})
	second := withIDs([]outfit.Item{jacket, reordered})
	require.Equal(t, first[0].ID, second[1].ID)
	require.Equal(t, first[1].ID, second[0].ID)
	require.NotEqual(t, first[0].ID, first[1].ID)

	twins := withIDs([]outfit.Item{tee, tee, {ID: "kept", Slot: outfit.SlotTop}})
	require.NotEqual(t, twins[0].ID, twins[1].ID)
	require.Equal(t, "kept", twins[2].ID)
}

func TestInlineWardrobesDoNotShareCachedReasoning(t *testing.T) {
	mine := []outfit.Item{
		{Slot: outfit.SlotTop, Category: "티셔츠", ColorPrimary: "white"},
		{Slot: outfit.SlotBottom, Category: "청바지", ColorPrimary: "blue"},
	}
	theirs := []outfit.Item{
		{Slot: outfit.SlotTop, Category: "패딩", ColorPrimary: "red"},
		{Slot: outfit.SlotBottom, Category: "스커트", ColorPrimary: "green"},
	}
	ids := withIDs(mine)
	chat := &stubChat{content: `[{"top_id":"` + ids[0].ID + `","bottom_id":"` + ids[1].ID + `","score":0.9,"reasoning":"흰 티셔츠와 청바지의 깔끔한 조합"}]`}
	cache := newStubCache()
	svc := newTestService(chat, cache, &stubForecaster{}, &stubWardrobe{}, nil)

	resp, err := svc.Recommend(context.Background(), Request{UserID: 1, Items: mine})
	require.NoError(t, err)
	require.Equal(t, MethodLLM, resp.Method)
	require.False(t, resp.Cached)

	resp, err = svc.Recommend(context.Background(), Request{UserID: 2, Items: theirs})
	require.NoError(t, err)
	require.False(t, resp.Cached)
	require.Equal(t, "패딩", resp.Outfits[0].Top.Category)
	require.NotEqual(t, "흰 티셔츠와 청바지의 깔끔한 조합", resp.Reasoning)
	require.Equal(t, 2, chat.callCount())

	resp, err = svc.Recommend(context.Background(), Request{UserID: 2, Items: mine})
	require.NoError(t, err)
	require.False(t, resp.Cached)
	require.Equal(t, 3, chat.callCount())

	resp, err = svc.Recommend(context.Background(), Request{UserID: 1, Items: mine})
	require.NoError(t, err)
	require.True(t, resp.Cached)
	require.Equal(t, 3, chat.callCount())
}

func TestCacheKeyDependsOnCaller(t *testing.T) {
	candidates := outfit.Rank(
		[]outfit.Item{{ID: "t1", Slot: outfit.SlotTop}},
		[]outfit.Item{{ID: "b1", Slot: outfit.SlotBottom}},
		0,
	)
	one := &run{req: Request{UserID: 1}, count: 1}
	two := &run{req: Request{UserID: 2}, count: 1}
	require.NotEqual(t,
		cacheKey(candidates, 1, requestContext(one)),
		cacheKey(candidates, 1, requestContext(two)),
	)
	require.Equal(t,
		cacheKey(candidates, 1, requestContext(one)),
		cacheKey(candidates, 1, requestContext(&run{req: Request{UserID: 1}, count: 1})),
	)
}

func newTestService(chat ChatClient, cache *stubCache, forecaster Forecaster, repo WardrobeRepository, logger *slog.Logger) Service {
	if logger == nil {
		logger = newTestLogger()
	}
	var c Cache
	if cache != nil {
		c = cache
	}
	cfg := Config{Model: "gpt-4o-mini", CandidateLimit: 10, DefaultCount: 1, MaxPromptTokens: 4000}
	return NewService(cfg, region.NewResolver(), forecaster, repo, c, chat, lenCounter{}, logger)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func wardrobe() []outfit.Item {
	formal := 0.8
	return []outfit.Item{
		{ID: "t1", Slot: outfit.SlotTop, Category: "셔츠", ColorPrimary: "white", StyleTags: []string{"classic"}, Formality: &formal},
		{ID: "t2", Slot: outfit.SlotTop, Category: "니트", ColorPrimary: "navy", StyleTags: []string{"casual"}},
		{ID: "t3", Slot: outfit.SlotTop, Category: "후드", ColorPrimary: "red", StyleTags: []string{"street"}},
		{ID: "b1", Slot: outfit.SlotBottom, Category: "슬랙스", ColorPrimary: "black", StyleTags: []string{"classic"}, Formality: &formal},
		{ID: "b2", Slot: outfit.SlotBottom, Category: "청바지", ColorPrimary: "blue", StyleTags: []string{"casual"}},
	}
}

func weatherRecord(minTemp, maxTemp float64) *forecast.DailyWeatherRecord {
	return &forecast.DailyWeatherRecord{DateID: "20250510", MinTemp: &minTemp, MaxTemp: &maxTemp}
}

type lenCounter struct{}

func (lenCounter) Count(text string) int { return len(text) / 4 }

type stubChat struct {
	mu      sync.Mutex
	content string
	err     error
	calls   int
	last    chatgpt.ChatCompletionRequest
}

func (s *stubChat) CreateChatCompletion(_ context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = req
	if s.err != nil {
		return chatgpt.ChatCompletionResponse{}, s.err
	}
	return chatgpt.ChatCompletionResponse{
		Choices: []chatgpt.Choice{{Message: chatgpt.Message{Role: "assistant", Content: s.content}}},
		Usage:   chatgpt.Usage{PromptTokens: 120, CompletionTokens: 30, TotalTokens: 150},
	}, nil
}

func (s *stubChat) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubChat) lastRequest() chatgpt.ChatCompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

type stubWardrobe struct {
	items []outfit.Item
	err   error
	calls int
}

func (s *stubWardrobe) ListItems(context.Context, int64) ([]outfit.Item, error) {
	s.calls++
	return s.items, s.err
}

type stubCache struct {
	entries map[string][]CachedPick
	deletes int
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string][]CachedPick)}
}

func (s *stubCache) Get(_ context.Context, key string) ([]CachedPick, bool, error) {
	picks, ok := s.entries[key]
	return picks, ok, nil
}

func (s *stubCache) Put(_ context.Context, key string, picks []CachedPick) error {
	s.entries[key] = picks
	return nil
}

func (s *stubCache) Delete(_ context.Context, key string) error {
	s.deletes++
	delete(s.entries, key)
	return nil
}

func (s *stubCache) corrupt(id string) {
	for _, picks := range s.entries {
		for i := range picks {
			picks[i].TopID = id
		}
	}
}

type stubForecaster struct {
	record    *forecast.DailyWeatherRecord
	calls     int
	lastPlace forecast.Place
}

func (s *stubForecaster) Daily(_ context.Context, place forecast.Place, _ time.Time) forecast.Daily {
	s.calls++
	s.lastPlace = place
	if s.record == nil {
		return forecast.Daily{Outcome: forecast.Outcome{Source: forecast.SourceUnavailable}, Reason: "날씨 정보를 아직 가져올 수 없습니다"}
	}
	return forecast.Daily{Record: s.record, Outcome: forecast.Outcome{Source: forecast.SourceCache}}
}

func (s *stubForecaster) Today() time.Time {
	return time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
}
