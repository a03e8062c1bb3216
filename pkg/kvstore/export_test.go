package kvstore

var EscapeGlob = escapeGlob
