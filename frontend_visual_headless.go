//go:build headless

// frontend_visual_headless.go - Visual frontend stub for headless builds

package main

import "errors"

func NewVisualFrontend() (Frontend, error) {
	return nil, errors.New("visual frontend unavailable in headless build")
}
