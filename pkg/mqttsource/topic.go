package mqttsource

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxTopicLength = 65535

// ParseTopics splits a comma separated topic list. Entries are trimmed and
// duplicates and empty entries removed, keeping first occurrence order.
func ParseTopics(s string) []string {
	seen := make(map[string]bool)
	var topics []string
	for _, part := range strings.Split(s, ",") {
		topic := strings.TrimSpace(part)
		if topic == "" || seen[topic] {
			continue
		}
		seen[topic] = true
		topics = append(topics, topic)
	}
	return topics
}

// ValidateTopic checks that topic is a valid subscribe filter: wildcards must
// fill a whole level and '#' may only be the last level.
func ValidateTopic(topic string) error {
	if topic == "" {
		return fmt.Errorf("%w: empty topic", ErrInvalidTopic)
	}
	if len(topic) > maxTopicLength {
		return fmt.Errorf("%w: topic longer than %d bytes", ErrInvalidTopic, maxTopicLength)
	}
	if !utf8.ValidString(topic) {
		return fmt.Errorf("%w: topic is not valid UTF-8", ErrInvalidTopic)
	}
	if strings.ContainsRune(topic, 0) {
		return fmt.Errorf("%w: topic contains null character", ErrInvalidTopic)
	}

	levels := strings.Split(topic, "/")
	for i, level := range levels {
		if strings.Contains(level, "#") && (level != "#" || i != len(levels)-1) {
			return fmt.Errorf("%w: '#' must be the whole last level in %q", ErrInvalidTopic, topic)
		}
		if strings.Contains(level, "+") && level != "+" {
			return fmt.Errorf("%w: '+' must be a whole level in %q", ErrInvalidTopic, topic)
		}
	}
	return nil
}

// ValidateTopics validates every topic of a comma separated list.
func ValidateTopics(s string) ([]string, error) {
	topics := ParseTopics(s)
	if len(topics) == 0 {
		return nil, ErrNoTopics
	}
	for _, topic := range topics {
		if err := ValidateTopic(topic); err != nil {
			return nil, err
		}
	}
	return topics, nil
}
