package core

import (
	"regexp"
)

// Pattern tables for the rule engine. Pure data, grouped by semantic role.
// Order within a list does not matter for scoring; all matching is done on
// the lowercased subject+preview text or the lowercased sender.

// Keywords that indicate a message needs a reply. Note that "?" is listed
// here and also carries an extra +2 in scoring.
var replyKeywords = []string{
	"question", "?", "please", "request", "urgent",
	"asap", "deadline", "meeting", "call", "respond",
	"reply", "answer", "confirm", "approve", "review",
	"action required", "need your", "would you", "can you",
	"could you", "should we", "when can", "what time",
	"schedule", "availability", "feedback", "input",
	"submit", "complete", "fill out", "required", "must",
}

// Keywords that indicate an important message
var importantKeywords = []string{
	"important", "critical", "priority", "action required",
	"confirmation", "approval", "decision", "review",
	"update", "announcement", "notice", "reminder",
	"deadline", "due date", "meeting", "conference",
	"project", "task", "assignment", "report",
	"class", "course", "homework", "exam", "test", "quiz",
	"grade", "grades", "syllabus", "lecture", "lesson",
	"teacher", "professor", "instructor", "student",
	"academic", "education", "school", "university",
	"new post", "new assignment", "new material",
}

// Keywords that suggest a message can be ignored. These never cause an
// ignore on their own; see the decision tree in rules.go.
var ignoreKeywords = []string{
	"unsubscribe", "newsletter", "promotion", "spam",
	"no-reply", "noreply", "donotreply",
	"marketing", "advertisement", "deal",
	"offer", "discount", "sale",
	"digest", "summary", "weekly", "monthly",
	"social media", "facebook", "twitter", "linkedin",
	"instagram", "youtube", "subscription",
	"promotional", "special offer", "limited time",
}

// Ignore keywords that only count when the text also carries a marketing
// co-indicator.
var contextualIgnoreKeywords = []string{
	"notification",
	"automated",
}

var marketingCoIndicators = []string{
	"promotion", "deal", "offer", "sale", "discount", "marketing",
}

// Keywords marking announcements and updates that carry no action item
var informationalKeywords = []string{
	"announcement", "announcements", "new announcement",
	"update", "updates", "notice", "notices",
	"reminder", "reminders", "information", "info",
	"posted", "shared", "published", "available",
}

// Deadline/academic-action keywords
var assignmentKeywords = []string{
	"assignment", "homework", "due", "submit", "complete", "required", "deadline",
}

// Direct-request phrases
var requestPhrases = []string{
	"please", "need your", "would you", "can you", "could you", "action required",
}

// Senders that must never be ignored: institutions, teachers, schools.
var importantSenderPatterns = compilePatterns([]string{
	`classroom\.google\.com`,
	`@.*\.edu`,
	`teacher@`,
	`professor@`,
	`instructor@`,
	`faculty@`,
	`staff@.*\.edu`,
	`admin@.*\.edu`,
	`@.*school`,
	`@.*university`,
	`@.*college`,
	`@.*academy`,
})

var importantDomains = []string{
	"classroom.google.com",
	"edu",
	"school",
	"university",
	"college",
	"academy",
}

var educationalRoleKeywords = []string{
	"teacher", "professor", "instructor", "faculty", "staff", "admin",
}

// Marketing-style sender local parts
var marketingSenderPatterns = compilePatterns([]string{
	`noreply@`,
	`no-reply@`,
	`donotreply@`,
	`newsletter@`,
	`marketing@`,
	`promo@`,
	`deals@`,
	`offers@`,
})

var marketingDomains = []string{
	"marketing", "promo", "deals", "offers", "newsletter",
}

// Pure do-not-contact sender forms, narrower than the marketing set
var noReplyPatterns = compilePatterns([]string{
	`no-reply@`,
	`noreply@`,
	`no_reply@`,
	`donotreply@`,
	`do-not-reply@`,
})

// Looser substring set used only for routing messages past the inference
// path. Intentionally broader than importantSenderPatterns: routing a few
// extra senders to the rule engine is cheap, missing one is not.
var fastPathSenderSubstrings = []string{
	"classroom.google.com",
	".edu",
	"teacher",
	"professor",
	"instructor",
	"faculty",
	"staff",
}

func compilePatterns(exprs []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		patterns[i] = regexp.MustCompile(expr)
	}
	return patterns
}
