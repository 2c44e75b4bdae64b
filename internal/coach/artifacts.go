package coach

import (
	"sort"

	"github.com/lookbackhq/lookback/internal/ai"
)

var affirmations = map[string]string{
	"positive": "훌륭합니다! 오늘 느낀 긍정적인 흐름을 즐기면서도, 다음 발걸음을 차분히 준비해봐요.",
	"neutral":  "차분하게 스스로를 돌아본 것이 충분히 의미 있는 한 걸음입니다. 조금만 더 구체적인 다음 행동을 정해볼까요?",
	"negative": "어려움 속에서도 기록을 남긴 자신을 먼저 칭찬해주세요. 상황을 정리하며 작은 회복부터 시작해봐요.",
}

// Emotion is the highest-scoring entry of a sentiment's emotion map.
type Emotion struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// FocusPoint pairs a keyword with a short reason for surfacing it.
type FocusPoint struct {
	Topic  string `json:"topic"`
	Reason string `json:"reason"`
}

func selectAffirmation(label string) string {
	if a, ok := affirmations[label]; ok {
		return a
	}
	return affirmations["neutral"]
}

// dominantEmotion picks the emotion with the highest score. Equal scores are
// broken by map iteration order; the caller accepts that ambiguity.
func dominantEmotion(emotions map[string]float64) Emotion {
	best := Emotion{Name: "neutral", Score: 0}
	found := false
	for name, score := range emotions {
		if !found || score > best.Score {
			best = Emotion{Name: name, Score: score}
			found = true
		}
	}
	return best
}

func buildFocusPoints(keywords []ai.Keyword, limit int) []FocusPoint {
	sorted := append([]ai.Keyword(nil), keywords...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Relevance > sorted[j].Relevance
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	points := make([]FocusPoint, 0, len(sorted))
	for _, k := range sorted {
		reason := "회고 내용에서 자주 언급된 키워드예요."
		if k.Relevance >= 0.7 {
			reason = "이번 회고에서 핵심적으로 다룬 주제예요."
		}
		points = append(points, FocusPoint{Topic: k.Word, Reason: reason})
	}
	return points
}

func buildActionItems(label string, primary Emotion, limit int) []string {
	var base []string
	switch label {
	case "positive":
		base = append(base,
			"오늘 잘한 점을 구체적으로 기록하고, 같은 패턴을 반복할 방법을 정하세요.",
			"기분이 올라가 있을 때 실천하고 싶은 새로운 도전을 하나 정해보세요.",
			"작은 감사 목록을 작성해 긍정적인 에너지를 유지해보세요.",
		)
	case "negative":
		base = append(base,
			"지금 힘든 원인을 한 문장으로 정리해보고, 통제 가능한 요소와 아닌 요소를 나눠보세요.",
			"도움을 받을 수 있는 사람이나 자원을 떠올리고, 구체적인 연락 계획을 세워보세요.",
			"오늘 할 수 있는 가장 작은 회복 행동(산책, 휴식, 대화 등)을 즉시 실행해보세요.",
		)
	default:
		base = append(base,
			"회고에서 가장 기억에 남는 장면을 한 문장으로 요약해보세요.",
			"이번 경험에서 얻은 교훈을 다음 행동 계획과 연결지어 기록하세요.",
			"3일 이내에 확인하고 싶은 지표나 결과를 정해 알림을 설정해보세요.",
		)
	}

	switch primary.Name {
	case "fear":
		base = append(base, "불안을 줄이기 위해 최악의 시나리오와 그 대응 방법을 간단히 정리해보세요.")
	case "anger":
		base = append(base, "감정을 표출할 수 있는 안전한 방법(운동, 글쓰기 등)을 오늘 안에 실행해보세요.")
	case "sadness":
		base = append(base, "감정을 나눌 수 있는 사람에게 짧은 메시지를 보내보세요.")
	}

	return dedupeCap(base, limit)
}

func buildFollowUpQuestions(label string, primary Emotion, limit int) []string {
	questions := []string{
		"오늘 회고에서 가장 중요한 전환점은 무엇이었나요?",
		"이 경험을 다시 겪는다면 무엇을 동일하게, 무엇을 다르게 하실 건가요?",
	}

	switch label {
	case "positive":
		questions = append(questions, "이번 성과를 다음 목표와 연결하기 위해 필요한 준비는 무엇인가요?")
	case "negative":
		questions = append(questions, "가장 부담되는 지점은 무엇이며, 이를 덜어줄 작은 조치는 무엇일까요?")
	default:
		questions = append(questions, "앞으로 일주일 안에 확인하고 싶은 변화는 무엇인가요?")
	}

	switch primary.Name {
	case "joy":
		questions = append(questions, "이 긍정적인 감정을 유지하기 위해 내일 어떤 행동을 해볼까요?")
	case "anger":
		questions = append(questions, "분노를 일으킨 기준이나 기대치는 무엇이며, 그것을 조정할 필요는 없을까요?")
	}

	return dedupeCap(questions, limit)
}

// dedupeCap removes duplicates preserving first occurrence, then caps.
func dedupeCap(items []string, limit int) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out
}
