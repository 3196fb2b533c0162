package services

import "strings"

// Topic is the coarse subject a fallback reply is chosen for.
type Topic string

const (
	TopicCrisis     Topic = "crisis"
	TopicAnxiety    Topic = "anxiety"
	TopicDepression Topic = "depression"
	TopicStress     Topic = "stress"
	TopicGeneral    Topic = "general"
)

// fallbackRules is checked in order; the first rule with a keyword present
// wins.
var fallbackRules = []struct {
	topic    Topic
	keywords []string
}{
	{TopicAnxiety, []string{"anxious", "anxiety", "worried"}},
	{TopicDepression, []string{"sad", "depressed", "down"}},
	{TopicStress, []string{"stressed", "overwhelmed"}},
}

// Each template keeps its indented second line as part of the reply text.
var templates = map[Topic]string{
	TopicCrisis: "I'm really concerned about what you're sharing. Your life has value and there are people who want to help.\n" +
		"            \n" +
		`Please consider reaching out to:
🆘 National Suicide Prevention Lifeline: 988
🆘 Crisis Text Line: Text HOME to 741741
🆘 International Association for Suicide Prevention: https://www.iasp.info/resources/Crisis_Centres/

You don't have to go through this alone. Would you like to talk about what's making you feel this way?`,

	TopicAnxiety: "I understand you're feeling anxious. Here are some techniques that might help:\n" +
		"        \n" +
		`🌬️ **Deep Breathing**: Try the 4-7-8 technique - inhale for 4, hold for 7, exhale for 8
🧘 **Mindfulness**: Focus on your present surroundings using your 5 senses
📝 **Write it down**: Sometimes putting worries on paper helps organize thoughts
🚶 **Movement**: Even a short walk can help reduce anxiety

Would you like to try one of these techniques together?`,

	TopicDepression: "I hear that you're feeling down, and I want you to know that your feelings are valid. Depression can feel overwhelming, but you're not alone.\n" +
		"        \n" +
		`Some gentle suggestions:
💡 **Small steps**: Try one tiny positive action today
🤗 **Reach out**: Connect with someone you trust
☀️ **Light and nature**: Spend a few minutes outside if possible
💤 **Rest**: Make sure you're getting adequate sleep

Remember, it's okay to not be okay. Have you considered speaking with a mental health professional?`,

	TopicStress: "Feeling overwhelmed is a sign that you're carrying a lot right now. Let's work on breaking things down:\n" +
		"        \n" +
		`🎯 **Prioritize**: What's the most important thing today?
⏰ **Break it down**: Divide big tasks into smaller, manageable steps
🛑 **Pause**: Take regular breaks to breathe and reset
🙅 **Boundaries**: It's okay to say no to additional commitments

What's one small thing you could do right now to feel a bit more in control?`,

	TopicGeneral: "Thank you for sharing with me. I'm here to listen and support you. Everyone faces challenges, and reaching out shows strength.\n" +
		"        \n" +
		`How are you feeling right now? I'm here to help you work through whatever you're experiencing. Remember:
- Your feelings are valid
- You're not alone in this
- Small steps forward still count as progress
- It's okay to ask for help

What would be most helpful for you today?`,
}

// Template returns the canned reply for topic, or the general one for an
// unknown topic.
func Template(topic Topic) string {
	if t, ok := templates[topic]; ok {
		return t
	}
	return templates[TopicGeneral]
}

// ClassifyTopic picks the fallback topic for a non-crisis message.
func ClassifyTopic(message string) Topic {
	lower := strings.ToLower(message)
	for _, rule := range fallbackRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.topic
			}
		}
	}
	return TopicGeneral
}

// FallbackResponse is the local reply used when no generator is available
// or it failed.
func FallbackResponse(message string) string {
	return Template(ClassifyTopic(message))
}
