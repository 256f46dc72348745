// Package wordlist provides the built-in vocabulary and reads and writes
// word lists in text and spreadsheet form.
package wordlist

import "wordmatch/internal/models"

var defaultWords = []models.WordPair{
	{English: "apple", Chinese: "苹果"},
	{English: "book", Chinese: "书本"},
	{English: "cat", Chinese: "猫"},
	{English: "dog", Chinese: "狗"},
	{English: "elephant", Chinese: "大象"},
	{English: "flower", Chinese: "花"},
	{English: "grass", Chinese: "草"},
	{English: "house", Chinese: "房子"},
	{English: "ice", Chinese: "冰"},
	{English: "juice", Chinese: "果汁"},
	{English: "king", Chinese: "国王"},
	{English: "lion", Chinese: "狮子"},
	{English: "moon", Chinese: "月亮"},
	{English: "night", Chinese: "夜晚"},
	{English: "orange", Chinese: "橙子"},
	{English: "pencil", Chinese: "铅笔"},
	{English: "queen", Chinese: "女王"},
	{English: "rain", Chinese: "雨"},
	{English: "sun", Chinese: "太阳"},
	{English: "tree", Chinese: "树"},
}

var templateExamples = []models.WordPair{
	{English: "word", Chinese: "单词"},
	{English: "example", Chinese: "例子"},
}

// Defaults returns a copy of the built-in word list
func Defaults() []models.WordPair {
	return append([]models.WordPair(nil), defaultWords...)
}

// TemplateExamples returns the sample rows written into the import template
func TemplateExamples() []models.WordPair {
	return append([]models.WordPair(nil), templateExamples...)
}
