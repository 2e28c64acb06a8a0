// Package testsupport holds fixtures shared by package tests: a
// self-contained config builder, webhook payload writers, and a go-vcr
// recorder for the dispatch endpoint.
package testsupport
