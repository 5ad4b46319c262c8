package prompt

import "fmt"

// ContentAnalysis asks for the three-field JSON shape from raw social copy.
func ContentAnalysis(text string) string {
	return fmt.Sprintf(`Analyze the following social media content and provide:
1. A virality score from 0-100
2. The emotional tone (e.g., Excitement, Sadness, Humor)
3. 2-3 suggestions to improve engagement

Content: "%s"

Format your response as a valid JSON object with fields: viralityScore, emotionalTone, suggestions (array)`, text)
}

// FrameDescription is the vision prompt for sampled video frames.
func FrameDescription() string {
	return "Analyze this video frame and describe what's happening. Assess the visual quality, composition, and potential viewer engagement factors."
}
