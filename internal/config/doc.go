// Package config loads humane settings.
//
// Settings come from three layers, later ones winning:
//
//  1. Built-in defaults
//  2. A TOML or YAML file, chosen by extension
//  3. HUMANE_* environment variables, e.g. HUMANE_HISTORY_LIMIT=500
//
// A file looks like:
//
//	[document]
//	dir = "~/.local/share/humane"
//	name = "humane"
//
//	[history]
//	limit = 10000
//
//	[persist]
//	flush_threshold = 16
//	flush_interval = "5s"
//	text_backups = 20
//	text_backup_every = 100
//
//	[logging]
//	level = "info"   # debug, info, warn, error
//	format = "text"  # text, json
//	file = ""
//
//	[style]
//	font = "Courier New"
//	size = 16
//	foreground = "black"
//	background = "#ffffff"
//
//	[scripts]
//	files = ["behaviors.lua"]
//	timeout = "5s"
package config
