package gemini

// Classify exposes classify for testing.
var Classify = classify
