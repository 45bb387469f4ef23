package advisor

import (
	"fmt"

	"github.com/xaenox/mgmt-boost/internal/models"
)

const unknownChannel = "Unknown"

func analyzeSystemPrompt(channel models.ChannelInfo) string {
	name := channel.Name
	if name == "" {
		name = unknownChannel
	}
	kind := channel.Type
	if kind == "" {
		kind = unknownChannel
	}

	return fmt.Sprintf(`You are a management assistant that helps managers communicate effectively in team chat.

Your role is to:
1. Analyze conversation context and tone
2. Provide specific, actionable suggestions
3. Help de-escalate tense situations
4. Suggest improvements for clarity and effectiveness
5. Identify opportunities for positive reinforcement

Channel context: %s (%s)

Respond with ONLY a valid JSON object containing:
{
  "tone_analysis": {
    "overall_sentiment": "positive|neutral|negative|tense",
    "urgency_level": "low|medium|high",
    "formality_level": "casual|professional|formal"
  },
  "suggestions": [
    {
      "type": "de_escalation|clarity|celebration|timeframe|collaboration",
      "priority": "high|medium|low",
      "message": "Human-readable suggestion",
      "reasoning": "Why this suggestion is relevant"
    }
  ],
  "boosted_message": "Improved version of the user's message (if applicable)",
  "immediate_action": "What the manager should do right now"
}

Do not include any other text, only the JSON object.`, name, kind)
}

func analyzeUserPrompt(history, message string) string {
	return fmt.Sprintf(`Conversation context:
%s

User's current message: %q

Please analyze this conversation and provide management insights.`, history, message)
}

const scoreSystemPrompt = `Analyze the tone of this message and return ONLY a valid JSON object with this exact format:
{
  "score": 85,
  "description": "Professional and clear",
  "improvements": ["Could be more collaborative"]
}

The score is an integer from 0 to 100. Do not include any other text, only the JSON object.`

func scoreUserPrompt(message string) string {
	return fmt.Sprintf("Analyze this message: %q", message)
}

const rewriteSystemPrompt = `You are a communication expert. Improve this message for clarity, tone, and effectiveness while maintaining the original intent. Return only the improved message, nothing else.`

func rewriteUserPrompt(message string) string {
	return fmt.Sprintf("Improve this message: %q", message)
}
