package landing

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var defaultContent []byte

// ErrNoTestimonials is returned when the content file has no testimonials.
var ErrNoTestimonials = errors.New("landing content needs at least one testimonial")

// Testimonial is a quote shown in the carousel.
type Testimonial struct {
	Name  string `yaml:"name"`
	Text  string `yaml:"text"`
	Image string `yaml:"image"`
}

// FAQ is a question with a markdown answer.
type FAQ struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// Content is the marketing copy of the landing page.
type Content struct {
	Headline        string        `yaml:"headline"`
	WaitlistPitch   string        `yaml:"waitlist_pitch"`
	WaitlistSuccess string        `yaml:"waitlist_success"`
	Testimonials    []Testimonial `yaml:"testimonials"`
	FAQ             []FAQ         `yaml:"faq"`
}

// Parse decodes landing content from YAML.
// PRE: data is a YAML document
// POST: Returns content with at least one testimonial, or an error
func Parse(data []byte) (Content, error) {
	var c Content
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Content{}, fmt.Errorf("parse landing content: %w", err)
	}
	if len(c.Testimonials) == 0 {
		return Content{}, ErrNoTestimonials
	}
	return c, nil
}

// Default returns the built-in landing content.
func Default() Content {
	c, err := Parse(defaultContent)
	if err != nil {
		panic(err)
	}
	return c
}

// Testimonial returns the testimonial at index i, wrapping around in both directions.
func (c Content) Testimonial(i int) Testimonial {
	return c.Testimonials[wrap(i, len(c.Testimonials))]
}

// NextTestimonial returns the carousel index after i.
func (c Content) NextTestimonial(i int) int {
	return wrap(i+1, len(c.Testimonials))
}

// PrevTestimonial returns the carousel index before i.
func (c Content) PrevTestimonial(i int) int {
	return wrap(i-1, len(c.Testimonials))
}

func wrap(i, n int) int {
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}
