// Package es provides the Elasticsearch client and the full-text file index.
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/diegopaiva1/file-search-poc/internal/config"
	"github.com/diegopaiva1/file-search-poc/internal/model"
	"github.com/diegopaiva1/file-search-poc/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ESClient *elasticsearch.Client

// InitES initializes the Elasticsearch client and bootstraps the file index.
func InitES(esCfg config.ElasticsearchConfig) error {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return err
	}
	ESClient = client
	return createIndexIfNotExists(client, esCfg.IndexName)
}

// createIndexIfNotExists creates the index unless it is already there.
// Content is analyzed with the english analyzer (tokenized, stemmed,
// stop-worded), which is what ranked matching and snippets run against.
func createIndexIfNotExists(client *elasticsearch.Client, indexName string) error {
	res, err := client.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("failed to check whether index exists: %v", err)
		return err
	}
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("index '%s' already exists", indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("unexpected status code while checking index '%s': %d", indexName, res.StatusCode)
		return fmt.Errorf("unexpected status code while checking index: %d", res.StatusCode)
	}

	mapping := `{
		"mappings": {
			"properties": {
				"file_id": { "type": "keyword" },
				"filename": { "type": "text" },
				"content": {
					"type": "text",
					"analyzer": "english"
				},
				"uploaded_at": { "type": "date" }
			}
		}
	}`

	res, err = client.Indices.Create(
		indexName,
		client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		log.Errorf("failed to create index '%s': %v", indexName, err)
		return err
	}
	if res.IsError() {
		log.Errorf("Elasticsearch returned an error creating index '%s': %s", indexName, res.String())
		return errors.New("elasticsearch returned an error while creating index")
	}

	log.Infof("index '%s' created successfully", indexName)
	return nil
}

// FileHit is one ranked hit of a full-text query: the matched file id, its
// relevance score and a highlighted snippet of the extracted text.
type FileHit struct {
	FileID  string
	Score   float64
	Snippet string
}

// FileIndex exposes index, delete and search over the file content index.
type FileIndex struct {
	client *elasticsearch.Client
	name   string
}

// NewFileIndex creates a FileIndex over the given client and index name.
func NewFileIndex(client *elasticsearch.Client, name string) *FileIndex {
	return &FileIndex{client: client, name: name}
}

// IndexDocument stores (or overwrites) the document under its file id.
func (i *FileIndex) IndexDocument(ctx context.Context, doc model.EsDocument) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      i.name,
		DocumentID: doc.FileID,
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, i.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("failed to index document into Elasticsearch: %s", res.String())
		return errors.New("failed to index document")
	}
	return nil
}

// DeleteDocument removes the document for the given file id. A missing
// document is not an error: the file may never have been indexed.
func (i *FileIndex) DeleteDocument(ctx context.Context, fileID string) error {
	req := esapi.DeleteRequest{
		Index:      i.name,
		DocumentID: fileID,
		Refresh:    "true",
	}

	res, err := req.Do(ctx, i.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		log.Errorf("failed to delete document from Elasticsearch: %s", res.String())
		return errors.New("failed to delete document")
	}
	return nil
}

// SearchFiles runs a ranked match query against the extracted content and
// returns the hits of the requested page plus the total match count.
// The snippet is a single highlighted fragment of roughly fifty words.
func (i *FileIndex) SearchFiles(ctx context.Context, query string, limit, offset int) ([]FileHit, int64, error) {
	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				"content": map[string]interface{}{
					"query": query,
				},
			},
		},
		"from":             offset,
		"size":             limit,
		"track_total_hits": true,
		"_source":          false,
		"highlight": map[string]interface{}{
			"fields": map[string]interface{}{
				"content": map[string]interface{}{
					"fragment_size":       300,
					"number_of_fragments": 1,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, 0, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.name),
		i.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("Elasticsearch returned an error, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, 0, fmt.Errorf("elasticsearch returned an error: %s", res.Status())
	}

	var esResponse struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID        string  `json:"_id"`
				Score     float64 `json:"_score"`
				Highlight struct {
					Content []string `json:"content"`
				} `json:"highlight"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, 0, fmt.Errorf("failed to decode es response: %w", err)
	}

	hits := make([]FileHit, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		snippet := ""
		if len(hit.Highlight.Content) > 0 {
			snippet = hit.Highlight.Content[0]
		}
		hits = append(hits, FileHit{
			FileID:  hit.ID,
			Score:   hit.Score,
			Snippet: snippet,
		})
	}
	return hits, esResponse.Hits.Total.Value, nil
}
