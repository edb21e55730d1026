// Package parser extracts reviewable content from markdown sources.
//
// Two shapes are recognized: explicit Q:/A:/C: card blocks, and fact
// lists written as a heading followed by bullet items. Lists are fed to
// the overlapping-cloze generator downstream; Q/A blocks become
// standard cards.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// QA is a standalone question/answer card block.
type QA struct {
	Question string
	Answer   string
	Context  string
}

// List is a detected fact list: a heading and its bullet items.
type List struct {
	Title string
	Items []string
}

// Document holds everything extracted from one source file.
type Document struct {
	Cards []QA
	Lists []List
}

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	contextPrefix  = "C:"
)

type state int

const (
	seeking state = iota
	readingQuestion
	readingAnswer
	readingContext
)

// ParseFile reads a file from the given path and extracts its content.
func ParseFile(path string) (Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts cards and lists.
func Parse(r io.Reader) (Document, error) {
	scanner := bufio.NewScanner(r)
	var doc Document

	var currentCard QA
	var currentBlock []string
	currentState := seeking

	var listTitle string
	var listItems []string
	listOpen := false

	closeBlock := func() {
		if len(currentBlock) > 0 {
			content := strings.Join(currentBlock, "\n")
			switch currentState {
			case readingQuestion:
				currentCard.Question = content
			case readingAnswer:
				currentCard.Answer = content
			case readingContext:
				currentCard.Context = content
			}
			currentBlock = nil
		}
	}

	finishCard := func() {
		closeBlock()
		if currentCard.Question != "" {
			doc.Cards = append(doc.Cards, currentCard)
		}
		currentCard = QA{}
		currentState = seeking
	}

	finishList := func() {
		if listOpen && len(listItems) > 0 {
			doc.Lists = append(doc.Lists, List{Title: listTitle, Items: listItems})
		}
		listTitle = ""
		listItems = nil
		listOpen = false
	}

	for scanner.Scan() {
		line := scanner.Text()

		isQ := strings.HasPrefix(line, questionPrefix)
		isA := strings.HasPrefix(line, answerPrefix)
		isC := strings.HasPrefix(line, contextPrefix)

		if line == "---" {
			finishCard()
			finishList()
			continue
		}

		if isQ || isA || isC {
			finishList()
			closeBlock()

			if isQ {
				if currentState != seeking { // a new question always starts a new card
					finishCard()
				}
				currentState = readingQuestion
				currentBlock = append(currentBlock, stripPrefix(line, questionPrefix))
			} else if isA {
				currentState = readingAnswer
				currentBlock = append(currentBlock, stripPrefix(line, answerPrefix))
			} else {
				currentState = readingContext
				currentBlock = append(currentBlock, stripPrefix(line, contextPrefix))
			}
			continue
		}

		// Inside a card block, everything is continuation content.
		if currentState != seeking {
			if title, ok := headingTitle(line); ok {
				finishCard()
				finishList()
				listTitle = title
				listOpen = true
				continue
			}
			currentBlock = append(currentBlock, line)
			continue
		}

		if title, ok := headingTitle(line); ok {
			finishList()
			listTitle = title
			listOpen = true
			continue
		}

		if item, ok := bulletItem(line); ok && listOpen {
			listItems = append(listItems, item)
			continue
		}

		if strings.TrimSpace(line) != "" {
			// Prose between a heading and its bullets (or after them)
			// closes the list; a plain blank line does not.
			finishList()
		}
	}

	finishCard()
	finishList()

	if err := scanner.Err(); err != nil {
		return Document{}, err
	}

	return doc, nil
}

// headingTitle returns the text of a markdown heading line.
func headingTitle(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	title := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
	if title == "" {
		return "", false
	}
	return title, true
}

// bulletItem returns the text of a "- item" or "* item" bullet line.
func bulletItem(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	for _, marker := range []string{"- ", "* "} {
		if rest, ok := strings.CutPrefix(trimmed, marker); ok {
			item := strings.TrimSpace(rest)
			if item != "" {
				return item, true
			}
		}
	}
	return "", false
}

func stripPrefix(line, prefix string) string {
	content := line[len(prefix):]
	if strings.HasPrefix(content, " ") {
		content = content[1:]
	}
	return content
}
