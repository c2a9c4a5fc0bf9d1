// Package gforms talks to Google Forms the way a browser does: it resolves
// shortened form links, scrapes view pages for the hidden token and the
// entry IDs of the questions, and posts responses.
package gforms

const userAgent = "Mozilla/5.0 (compatible; leave-form-bot/1.0)"
