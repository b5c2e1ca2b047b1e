// Package usage tracks the per-category daily quotas that gate feature
// access for non-paying users, with lazy UTC day rollover and atomic
// bounded increments.
package usage
