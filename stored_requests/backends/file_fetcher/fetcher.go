package file_fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prebid/prebid-response-engine/stored_requests"
)

const (
	impsDirectory       = "stored_imps"
	categoriesDirectory = "categories"
)

// NewFileFetcher _immediately_ loads stored imps and category files from local files.
// These are stored in memory for low-latency reads.
//
// The directory is expected to look like:
//
//	directory/stored_imps/{imp_id}.json
//	directory/categories/{adserver}/{adserver}.json
//	directory/categories/{adserver}/{adserver}_{publisher}.json
//
// A category file maps IAB categories to {"id": ..., "name": ...} objects.
func NewFileFetcher(directory string) (stored_requests.AllFetcher, error) {
	if _, err := os.Stat(directory); err != nil {
		return nil, err
	}

	imps, err := collectStoredData(filepath.Join(directory, impsDirectory))
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	categories, err := collectCategories(filepath.Join(directory, categoriesDirectory))
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return &eagerFetcher{
		imps:       imps,
		categories: categories,
	}, nil
}

type eagerFetcher struct {
	imps map[string]json.RawMessage
	// categories is keyed by file name without extension, then by IAB category.
	categories map[string]map[string]stored_requests.Category
}

func (fetcher *eagerFetcher) FetchImps(ctx context.Context, impIDs []string) (map[string]json.RawMessage, []error) {
	found := make(map[string]json.RawMessage, len(impIDs))
	for _, id := range impIDs {
		if data, ok := fetcher.imps[id]; ok {
			found[id] = data
		}
	}
	return found, stored_requests.AppendNotFoundErrors("Imp", impIDs, found, nil)
}

func (fetcher *eagerFetcher) FetchCategories(ctx context.Context, primaryAdServer, publisherId, iabCategory string) (string, error) {
	fileName := primaryAdServer
	if len(publisherId) != 0 {
		fileName = primaryAdServer + "_" + publisherId
	}

	data, ok := fetcher.categories[fileName]
	if !ok {
		return "", stored_requests.CategoryNotFoundError{PrimaryAdServer: primaryAdServer, PublisherID: publisherId, IABCategory: iabCategory}
	}
	if category, ok := data[iabCategory]; ok && category.Id != "" {
		return category.Id, nil
	}
	return "", fmt.Errorf("Unable to find category mapping for adserver: '%s', publisherId: '%s', iab category: '%s'", primaryAdServer, publisherId, iabCategory)
}

func collectStoredData(directory string) (map[string]json.RawMessage, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return nil, err
	}
	data := make(map[string]json.RawMessage, len(entries))
	for _, entry := range entries {
		// Skip the .gitignore and nested directories
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		fileData, err := os.ReadFile(filepath.Join(directory, entry.Name()))
		if err != nil {
			return nil, err
		}
		data[strings.TrimSuffix(entry.Name(), ".json")] = json.RawMessage(fileData)
	}
	return data, nil
}

func collectCategories(directory string) (map[string]map[string]stored_requests.Category, error) {
	adServers, err := os.ReadDir(directory)
	if err != nil {
		return nil, err
	}
	categories := make(map[string]map[string]stored_requests.Category)
	for _, adServer := range adServers {
		if !adServer.IsDir() {
			continue
		}
		files, err := collectStoredData(filepath.Join(directory, adServer.Name()))
		if err != nil {
			return nil, err
		}
		for name, raw := range files {
			mapping := make(map[string]stored_requests.Category)
			if err := json.Unmarshal(raw, &mapping); err != nil {
				return nil, fmt.Errorf("unable to unmarshal categories for adserver: '%s', file: '%s': %v", adServer.Name(), name, err)
			}
			categories[name] = mapping
		}
	}
	return categories, nil
}
