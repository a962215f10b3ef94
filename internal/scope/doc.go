// Package scope builds oscilloscope ("Scope") requests and decodes their answers.
package scope
