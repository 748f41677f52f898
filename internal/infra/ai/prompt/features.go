// Package prompt holds the feature prompts for the vision analyzer. Each
// prompt demands a strict JSON object so responses decode directly.
package prompt

func GetSystemPrompt() string {
	return "You are an image annotation service. Answer every request with a single JSON object matching the requested schema exactly. Do not add commentary, markdown, or extra fields."
}

func GetLabelsPrompt() string {
	return `List the most relevant descriptive labels for this image, ranked by confidence, highest first. Respond with JSON only: {"labels":[{"description":"...","score":0.0}]} where score is a confidence in [0,1].`
}

func GetObjectsPrompt() string {
	return `List the distinct physical objects visible in this image, ranked by confidence, highest first. Respond with JSON only: {"objects":[{"name":"...","score":0.0}]} where score is a confidence in [0,1].`
}

func GetTextPrompt() string {
	return `Transcribe all readable text in this image as one block, preserving line breaks. Respond with JSON only: {"text":"..."} using an empty string when there is no text.`
}

func GetFacesPrompt() string {
	return `Count the human faces visible in this image. Respond with JSON only: {"faces":0} where faces is a non-negative integer.`
}
