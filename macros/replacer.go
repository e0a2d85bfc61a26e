package macros

import (
	"bytes"
	"strings"
	"sync"
)

const delimiter = "##"

type Replacer interface {
	// Replace substitutes the ##MACRO## tokens of url with the values of the provider.
	// Unknown macros are replaced by an empty string.
	Replace(url string, macroProvider Provider) string
}

// NewReplacer returns a replacer which caches the parsed template of every url it saw.
func NewReplacer() Replacer {
	return &stringBasedProcessor{
		templates: make(map[string]urlMetaTemplate),
	}
}

type stringBasedProcessor struct {
	templates map[string]urlMetaTemplate
	sync.RWMutex
}

type urlMetaTemplate struct {
	indices   []int
	macroEnds []int
}

func constructTemplate(url string) urlMetaTemplate {
	tmplt := urlMetaTemplate{}
	currentIndex := 0
	for currentIndex < len(url) {
		start := strings.Index(url[currentIndex:], delimiter)
		if start == -1 {
			break
		}
		start += currentIndex
		middle := start + len(delimiter)
		end := strings.Index(url[middle:], delimiter)
		if end == -1 {
			break
		}
		end += middle
		tmplt.indices = append(tmplt.indices, start)
		tmplt.macroEnds = append(tmplt.macroEnds, end)
		currentIndex = end + len(delimiter)
	}
	return tmplt
}

func (processor *stringBasedProcessor) Replace(url string, macroProvider Provider) string {
	tmplt := processor.getTemplate(url)
	if len(tmplt.indices) == 0 {
		return url
	}

	var result bytes.Buffer
	currentIndex := 0
	for i, index := range tmplt.indices {
		macro := url[index+len(delimiter) : tmplt.macroEnds[i]]
		result.WriteString(url[currentIndex:index])
		result.WriteString(macroProvider.GetMacro(macro))
		currentIndex = tmplt.macroEnds[i] + len(delimiter)
	}
	result.WriteString(url[currentIndex:])
	return result.String()
}

func (processor *stringBasedProcessor) getTemplate(url string) urlMetaTemplate {
	processor.RLock()
	template, ok := processor.templates[url]
	processor.RUnlock()

	if !ok {
		template = constructTemplate(url)
		processor.Lock()
		processor.templates[url] = template
		processor.Unlock()
	}
	return template
}
