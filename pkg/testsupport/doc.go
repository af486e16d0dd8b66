// Package testsupport provides fixture trees and golden-file helpers shared
// by the package tests.
package testsupport
