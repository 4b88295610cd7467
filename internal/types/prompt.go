package types

// ProposerPromptLimit bounds how many utterances are quoted verbatim in the
// proposer prompt. Everything past the limit is summarized by a truncation
// note so prompt size stays bounded on long transcripts.
const ProposerPromptLimit = 50

// SegmentProposerPrompt instructs the external model to pick the best
// windows. Placeholders, in order: media duration (seconds), summary, total
// utterance count, utterance JSON, truncation note, max segments, target
// duration, target duration, tolerance, max segments.
var SegmentProposerPrompt = `You are an expert content strategist specializing in identifying the most engaging segments from video transcripts for short-form content creation.

SOURCE MATERIAL:
- Original video duration: %.1f seconds
- Video summary: %s
- The video has been transcribed into %d timestamped utterances. Each has precise start/end times from the original video timeline.

TRANSCRIPT UTTERANCES TO ANALYZE:
%s
%s

YOUR MISSION:
Find the TOP %d best continuous windows of about %d seconds each that would make the most engaging standalone short videos. You are extracting existing content, not writing new content. Windows must be distinct and non-overlapping.

EVALUATION CRITERIA:
1. Hook strength: attention-grabbing openings, questions, surprising claims.
2. Completeness: a window should tell a complete mini-story with natural start and end points, understandable without earlier context.
3. Engagement: quotable moments, practical advice, relatable problems.
4. Technical: continuous timeline, duration %d seconds (within %d seconds either way is acceptable), combine adjacent utterances as needed.

REQUIRED JSON RESPONSE FORMAT:
{
    "viral_segments": [
        {
            "rank": 1,
            "start_time": 123.45,
            "end_time": 153.45,
            "duration": 30.0,
            "text": "The exact transcript text from all included utterances combined",
            "segments_included": [5, 6, 7, 8, 9],
            "reasoning": "Why this window was chosen",
            "engagement_score": 8.7,
            "key_moment": {
                "timestamp": 135.2,
                "description": "The most impactful moment in this window"
            }
        }
    ]
}

CRITICAL REMINDERS:
- The text must be exactly what was said in the video.
- Timestamps must correspond to the actual video timeline.
- Return at most %d segments, ranked by engagement, best first.
- Respond with the JSON only.`
