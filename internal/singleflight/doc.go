// Package singleflight deduplicates concurrent executions that share a key.
package singleflight
