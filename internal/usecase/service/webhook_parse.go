package service

import (
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

var (
	issueRefPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:fix|fixes|fixed|close|closes|closed|resolve|resolves|resolved)\s+#(\d+)`),
		regexp.MustCompile(`#(\d+)`),
	}
	rewardLabelPattern = regexp.MustCompile(`(?i)reward:\s*(\d+(\.\d+)?)`)
)

// extractIssueNumber ищет ссылку на issue по очереди в каждом тексте:
// сначала "fixes #N" и подобные, затем любое "#N"
func extractIssueNumber(texts ...string) (int, bool) {
	for _, text := range texts {
		if text == "" {
			continue
		}
		for _, p := range issueRefPatterns {
			m := p.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			n, err := strconv.Atoi(m[1])
			if err != nil || n <= 0 {
				continue
			}
			return n, true
		}
	}
	return 0, false
}

// parseRewardLabel возвращает награду из первой метки вида "reward: 10 DOT".
// Нулевая награда считается отсутствием метки.
func parseRewardLabel(labels []string) (decimal.Decimal, bool) {
	for _, label := range labels {
		m := rewardLabelPattern.FindStringSubmatch(label)
		if m == nil {
			continue
		}
		amount, err := decimal.NewFromString(m[1])
		if err != nil || !amount.IsPositive() {
			return decimal.Zero, false
		}
		return amount, true
	}
	return decimal.Zero, false
}
