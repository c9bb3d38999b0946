package ai

import "fmt"

const transcribePrompt = `Transcribe the speech in the attached audio or video file.
Requirements:
1. Output format: every utterance on its own line as "[HH:MM:SS] Speaker X: text", where HH:MM:SS is the start of the utterance. Use milliseconds when you can, e.g. "[HH:MM:SS.mmm]". Without timestamps, use the speaker identifier alone.
2. Speakers: tell the voices apart and label them consistently as "Speaker A", "Speaker B", "Speaker C" and so on.
3. Accuracy: be as complete and exact as possible.
4. Video: transcribe the audio track only.
5. No distinguishable speakers: keep the timestamps (when available) and drop the identifiers, e.g. "[HH:MM:SS] text" or just "text".
Follow the output format strictly. Reply with the transcript only.`

func inferNamesPrompt(transcript string) string {
	return fmt.Sprintf(`Analyze the transcript below. Speakers are labelled "Speaker A", "Speaker B" and so on, sometimes after a timestamp such as "[00:00:05] Speaker A:".
Try to find the real names of these speakers when the conversation mentions them, for example when one speaker addresses another by name.

Return a JSON object. Keys are the original speaker identifiers (e.g. "Speaker A"), values are the suggested names.
When a name cannot be determined from the context, use the identifier itself as the value (e.g. "Speaker A": "Speaker A").
The reply must contain ONLY the JSON object.

Example:
"[00:00:05] Speaker A: Hi Ivan! How are you?
[00:00:08] Speaker B: Hi Anna! All good."
Expected JSON:
{"Speaker A": "Anna", "Speaker B": "Ivan"}

Transcript:
---
%s
---
JSON:`, transcript)
}

func summaryPrompt(transcript string) string {
	return fmt.Sprintf(`Write a short summary of the transcript below **in Markdown**.
Structure it with headings (e.g. "## Key points", "### Decisions"), bullet or numbered lists, and **bold** for emphasis.
Cover the key points, the decisions made (if any) and the main action items.
When speakers are named (e.g. "[00:00:05] Ivan:", "Maria:", "Speaker A:"), attribute the key points to them using those names.

Transcript:
---
%s
---
Reply with the summary only, without an introduction such as "Here is the summary:".`, transcript)
}

func chatSystemInstruction(transcript string) string {
	return fmt.Sprintf(`You are a helpful assistant. You are given the transcript of a recording below.
Answer the user's questions using ONLY information from this transcript.
Do not use outside knowledge. If the answer is not in the transcript, say so (e.g. "Sorry, I can't find that in the transcript."). Never make things up.
Keep answers short and to the point.

TRANSCRIPT:
---
%s
---
`, transcript)
}
