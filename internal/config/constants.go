package config

import "time"

// Base application details
const AppName = "tidemark"
const DefaultConfigFileName = "config.toml"
const DefaultLogFileName = "tidemark.log"
const DefaultNotesDirName = "notes"

// UI Layout
const StatusBarHeight = 1
const PaletteMaxRows = 8

// Status Bar
const MessageTimeout = 4 * time.Second

// Editing engine defaults
const DefaultHistoryCapacity = 200
const DefaultNormalizeMaxPasses = 8
const DefaultMaxAncestorWalk = 32
const DefaultSaveDebounce = 750 * time.Millisecond
const DefaultRenormalizeDebounce = 120 * time.Millisecond
const DefaultSlashTrigger = "/"

// Settle delay tiers. The frame tier stands in for one render frame.
const DefaultFrameDelay = 16 * time.Millisecond
const DefaultShortDelay = 10 * time.Millisecond
const DefaultMediumDelay = 50 * time.Millisecond
const DefaultLongDelay = 80 * time.Millisecond
const DefaultExtraLongDelay = 150 * time.Millisecond
