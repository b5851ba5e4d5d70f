package parser

import (
	"strings"
	"unicode"
)

// ChunkResult is one embedding-sized piece of a document.
type ChunkResult struct {
	Content     string
	Position    int
	HeadingPath string
}

// ChunkConfig defines chunking parameters.
type ChunkConfig struct {
	// TargetSize: ideal chunk size in characters
	TargetSize int
	// MinSize: minimum chunk size (smaller sections merge with neighbors)
	MinSize int
	// MaxSize: maximum chunk size (larger sections split at paragraphs)
	MaxSize int
	// Overlap: character overlap between adjacent chunks of one section
	Overlap int
}

// DefaultChunkConfig returns sensible defaults.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		TargetSize: 750,
		MinSize:    200,
		MaxSize:    1000,
		Overlap:    100,
	}
}

// ChunkDocument splits a parsed document into chunks along heading
// boundaries. Content before the first heading (or a document without any
// headings) becomes its own chunk. Oversized sections split at paragraph
// and sentence boundaries.
func ChunkDocument(doc *Document, config ChunkConfig) []ChunkResult {
	var chunks []ChunkResult

	if len(doc.Sections) == 0 {
		if strings.TrimSpace(doc.Content) == "" {
			return nil
		}
		chunks = chunkByParagraphs(doc.Content, "", config)
		for i := range chunks {
			chunks[i].Position = i
		}
		return chunks
	}

	// Preamble before the first heading.
	if first := doc.Sections[0]; first.Start > 1 {
		lines := strings.SplitN(doc.Content, "\n", first.Start)
		preamble := strings.TrimSpace(strings.Join(lines[:first.Start-1], "\n"))
		if preamble != "" {
			chunks = append(chunks, ChunkResult{Content: preamble})
		}
	}

	for _, section := range doc.Sections {
		if strings.TrimSpace(section.Content) == "" {
			continue
		}

		if len(section.Content) <= config.MaxSize {
			if len(section.Content) >= config.MinSize || len(chunks) == 0 {
				chunks = append(chunks, ChunkResult{
					Content:     section.Content,
					HeadingPath: section.Path,
				})
			} else {
				// Merge tiny section into the previous chunk.
				last := &chunks[len(chunks)-1]
				last.Content += "\n\n" + section.Heading + "\n" + section.Content
			}
			continue
		}

		sectionChunks := chunkByParagraphs(section.Content, section.Path, config)
		chunks = append(chunks, applyOverlap(sectionChunks, config.Overlap)...)
	}

	for i := range chunks {
		chunks[i].Position = i
	}
	return chunks
}

// chunkByParagraphs splits content at blank-line boundaries.
func chunkByParagraphs(content, headingPath string, config ChunkConfig) []ChunkResult {
	paragraphs := strings.Split(content, "\n\n")

	var chunks []ChunkResult
	var currentChunk strings.Builder

	flush := func() {
		if currentChunk.Len() > 0 {
			chunks = append(chunks, ChunkResult{
				Content:     strings.TrimSpace(currentChunk.String()),
				HeadingPath: headingPath,
			})
			currentChunk.Reset()
		}
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if currentChunk.Len()+len(para) > config.MaxSize {
			flush()
		}

		if len(para) > config.MaxSize {
			flush()
			for _, sc := range chunkBySentences(para, config) {
				chunks = append(chunks, ChunkResult{
					Content:     sc,
					HeadingPath: headingPath,
				})
			}
			continue
		}

		if currentChunk.Len() > 0 {
			currentChunk.WriteString("\n\n")
		}
		currentChunk.WriteString(para)
	}

	flush()
	return chunks
}

// chunkBySentences splits text at sentence boundaries.
func chunkBySentences(text string, config ChunkConfig) []string {
	sentences := splitSentences(text)

	var chunks []string
	var currentChunk strings.Builder

	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		if currentChunk.Len()+len(sentence) > config.TargetSize && currentChunk.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(currentChunk.String()))
			currentChunk.Reset()
		}

		if currentChunk.Len() > 0 {
			currentChunk.WriteString(" ")
		}
		currentChunk.WriteString(sentence)
	}

	if currentChunk.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(currentChunk.String()))
	}

	return chunks
}

// splitSentences splits text into sentences.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				// Skip likely abbreviations like "Dr."
				if i > 1 && unicode.IsUpper(runes[i-1]) {
					continue
				}
				sentences = append(sentences, current.String())
				current.Reset()
			}
		}
	}

	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}

	return sentences
}

// applyOverlap prefixes each chunk after the first with the tail of its
// predecessor, trimmed to a word boundary.
func applyOverlap(chunks []ChunkResult, overlap int) []ChunkResult {
	if overlap <= 0 || len(chunks) <= 1 {
		return chunks
	}

	result := make([]ChunkResult, len(chunks))
	copy(result, chunks)

	for i := 1; i < len(result); i++ {
		prevContent := chunks[i-1].Content
		if len(prevContent) > overlap {
			overlapText := prevContent[len(prevContent)-overlap:]
			if spaceIdx := strings.LastIndex(overlapText, " "); spaceIdx > 0 {
				overlapText = overlapText[spaceIdx+1:]
			}
			result[i].Content = overlapText + " " + result[i].Content
		}
	}

	return result
}
