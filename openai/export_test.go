package openai

// Classify exposes classify for testing.
var Classify = classify
