// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feishu

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
)

// TableKey identifies one of the four managed bitable tables.
type TableKey string

const (
	TableThreads   TableKey = "threads"
	TableArchives  TableKey = "archives"
	TableKnowledge TableKey = "knowledge"
	TableProjects  TableKey = "projects"
)

// codeTableNameExists is the vendor error for creating a table whose
// name is already taken; Init treats it as "look the table up instead".
const codeTableNameExists = 1254043

// fieldSpec describes one bitable column. Type codes: 1 text, 2 number,
// 3 single select, 4 multi select, 5 date, 15 url.
type fieldSpec struct {
	FieldName string         `json:"field_name"`
	Type      int            `json:"type"`
	Property  *fieldProperty `json:"property,omitempty"`
}

type fieldProperty struct {
	Options []fieldOption `json:"options"`
}

type fieldOption struct {
	Name string `json:"name"`
}

func selectOptions(names ...string) *fieldProperty {
	opts := make([]fieldOption, len(names))
	for i, n := range names {
		opts[i] = fieldOption{Name: n}
	}
	return &fieldProperty{Options: opts}
}

// tableSchema is the declared shape of one managed table.
type tableSchema struct {
	Name   string
	Fields []fieldSpec
}

// tableSchemas declares the four tables Init creates. Field names are
// the record keys used throughout the sync layer.
var tableSchemas = map[TableKey]tableSchema{
	TableThreads: {
		Name: "线头追踪",
		Fields: []fieldSpec{
			{FieldName: "标题", Type: 1},
			{FieldName: "分类", Type: 3, Property: selectOptions("待跟进事项", "未成型想法", "待验证假设", "技术债务", "其他")},
			{FieldName: "状态", Type: 3, Property: selectOptions("待处理", "进行中", "已完成", "搁置")},
			{FieldName: "优先级", Type: 3, Property: selectOptions("高", "中", "低")},
			{FieldName: "内容", Type: 1},
			{FieldName: "来源", Type: 1},
			{FieldName: "创建时间", Type: 5},
		},
	},
	TableArchives: {
		Name: "对话归档",
		Fields: []fieldSpec{
			{FieldName: "日期", Type: 5},
			{FieldName: "主题", Type: 1},
			{FieldName: "一句话总结", Type: 1},
			{FieldName: "标签", Type: 4, Property: &fieldProperty{Options: []fieldOption{}}},
			{FieldName: "核心洞见", Type: 1},
			{FieldName: "待跟进数", Type: 2},
			{FieldName: "详情链接", Type: 15},
		},
	},
	TableKnowledge: {
		Name: "知识沉淀",
		Fields: []fieldSpec{
			{FieldName: "标题", Type: 1},
			{FieldName: "类型", Type: 3, Property: selectOptions("方法论", "SOP", "洞见", "其他")},
			{FieldName: "摘要", Type: 1},
			{FieldName: "创建时间", Type: 5},
			{FieldName: "详情链接", Type: 15},
		},
	},
	TableProjects: {
		Name: "项目状态",
		Fields: []fieldSpec{
			{FieldName: "项目名", Type: 1},
			{FieldName: "状态", Type: 3, Property: selectOptions("运行中", "可用", "开发中", "待验证", "暂停")},
			{FieldName: "最近修改", Type: 1},
			{FieldName: "Git提交数", Type: 1},
			{FieldName: "待办", Type: 1},
			{FieldName: "更新时间", Type: 5},
		},
	},
}

// UpsertKeyField returns the natural-key column of a managed table.
func UpsertKeyField(key TableKey) string {
	switch key {
	case TableThreads, TableKnowledge:
		return "标题"
	case TableArchives:
		return "主题"
	case TableProjects:
		return "项目名"
	}
	return ""
}

// Record is one bitable row.
type Record struct {
	RecordID string         `json:"record_id"`
	Fields   map[string]any `json:"fields"`
}

// Init makes sure the bitable app and all four managed tables exist,
// creating whatever is missing, and fills the table-ID cache. Progress
// goes to w. It returns the bitable app token so first-run callers can
// persist it.
func (c *Client) Init(ctx context.Context, w io.Writer) (string, error) {
	if c.cfg.BitableToken == "" {
		token, err := c.createBitable(ctx, "AI知识管理")
		if err != nil {
			return "", err
		}
		c.cfg.BitableToken = token
		fmt.Fprintf(w, "created bitable app %s\n", token)
	}

	if err := c.refreshTableIDs(ctx); err != nil {
		return "", err
	}

	keys := make([]string, 0, len(tableSchemas))
	for k := range tableSchemas {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	for _, k := range keys {
		key := TableKey(k)
		if _, ok := c.tableIDs[key]; ok {
			fmt.Fprintf(w, "table %s exists\n", tableSchemas[key].Name)
			continue
		}
		id, err := c.createTable(ctx, key)
		if err != nil {
			return "", err
		}
		c.tableIDs[key] = id
		fmt.Fprintf(w, "created table %s\n", tableSchemas[key].Name)
	}

	return c.cfg.BitableToken, nil
}

func (c *Client) createBitable(ctx context.Context, name string) (string, error) {
	var data struct {
		App struct {
			AppToken string `json:"app_token"`
		} `json:"app"`
	}
	payload := map[string]string{
		"name":         name,
		"folder_token": c.cfg.FolderToken,
	}
	if _, err := c.do(ctx, http.MethodPost, "/bitable/v1/apps", payload, &data); err != nil {
		return "", fmt.Errorf("creating bitable: %w", err)
	}
	return data.App.AppToken, nil
}

func (c *Client) createTable(ctx context.Context, key TableKey) (string, error) {
	schema := tableSchemas[key]
	payload := map[string]any{
		"table": map[string]any{
			"name":              schema.Name,
			"default_view_name": "表格视图",
			"fields":            schema.Fields,
		},
	}

	var data struct {
		TableID string `json:"table_id"`
	}
	code, err := c.do(ctx, http.MethodPost,
		"/bitable/v1/apps/"+c.cfg.BitableToken+"/tables", payload, &data, codeTableNameExists)
	if err != nil {
		return "", fmt.Errorf("creating table %s: %w", schema.Name, err)
	}
	if code == codeTableNameExists {
		if err := c.refreshTableIDs(ctx); err != nil {
			return "", err
		}
		if id, ok := c.tableIDs[key]; ok {
			return id, nil
		}
		return "", fmt.Errorf("table %s reported as existing but not found", schema.Name)
	}
	return data.TableID, nil
}

// refreshTableIDs lists the bitable's tables and maps known names back
// to their keys.
func (c *Client) refreshTableIDs(ctx context.Context) error {
	if c.cfg.BitableToken == "" {
		return fmt.Errorf("bitable token not configured")
	}

	var data struct {
		Items []struct {
			Name    string `json:"name"`
			TableID string `json:"table_id"`
		} `json:"items"`
	}
	if _, err := c.do(ctx, http.MethodGet,
		"/bitable/v1/apps/"+c.cfg.BitableToken+"/tables", nil, &data); err != nil {
		return fmt.Errorf("listing tables: %w", err)
	}

	for _, item := range data.Items {
		for key, schema := range tableSchemas {
			if schema.Name == item.Name {
				c.tableIDs[key] = item.TableID
				break
			}
		}
	}
	return nil
}

func (c *Client) tableID(ctx context.Context, key TableKey) (string, error) {
	if id, ok := c.tableIDs[key]; ok {
		return id, nil
	}
	if err := c.refreshTableIDs(ctx); err != nil {
		return "", err
	}
	if id, ok := c.tableIDs[key]; ok {
		return id, nil
	}
	return "", fmt.Errorf("table %s not found in bitable", tableSchemas[key].Name)
}

// AddRecord inserts a row and returns its record ID.
func (c *Client) AddRecord(ctx context.Context, key TableKey, fields map[string]any) (string, error) {
	tableID, err := c.tableID(ctx, key)
	if err != nil {
		return "", err
	}

	var data struct {
		Record Record `json:"record"`
	}
	path := fmt.Sprintf("/bitable/v1/apps/%s/tables/%s/records", c.cfg.BitableToken, tableID)
	if _, err := c.do(ctx, http.MethodPost, path, map[string]any{"fields": fields}, &data); err != nil {
		return "", fmt.Errorf("adding record: %w", err)
	}
	return data.Record.RecordID, nil
}

// UpdateRecord overwrites the given fields of an existing row.
func (c *Client) UpdateRecord(ctx context.Context, key TableKey, recordID string, fields map[string]any) error {
	tableID, err := c.tableID(ctx, key)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/bitable/v1/apps/%s/tables/%s/records/%s", c.cfg.BitableToken, tableID, recordID)
	if _, err := c.do(ctx, http.MethodPut, path, map[string]any{"fields": fields}, nil); err != nil {
		return fmt.Errorf("updating record %s: %w", recordID, err)
	}
	return nil
}

// SearchRecord finds the first row whose field equals value, or nil.
func (c *Client) SearchRecord(ctx context.Context, key TableKey, field, value string) (*Record, error) {
	tableID, err := c.tableID(ctx, key)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"filter": map[string]any{
			"conjunction": "and",
			"conditions": []map[string]any{{
				"field_name": field,
				"operator":   "is",
				"value":      []string{value},
			}},
		},
	}

	var data struct {
		Items []Record `json:"items"`
	}
	path := fmt.Sprintf("/bitable/v1/apps/%s/tables/%s/records/search", c.cfg.BitableToken, tableID)
	if _, err := c.do(ctx, http.MethodPost, path, payload, &data); err != nil {
		return nil, fmt.Errorf("searching records: %w", err)
	}
	if len(data.Items) == 0 {
		return nil, nil
	}
	return &data.Items[0], nil
}

// Upsert finds a row by the table's natural key and updates it, or
// inserts a new one. Reports whether an existing row was updated.
func (c *Client) Upsert(ctx context.Context, key TableKey, fields map[string]any) (bool, error) {
	keyField := UpsertKeyField(key)
	keyValue, _ := fields[keyField].(string)
	if keyValue == "" {
		return false, fmt.Errorf("upsert into %s: missing key field %s", key, keyField)
	}

	existing, err := c.SearchRecord(ctx, key, keyField, keyValue)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return true, c.UpdateRecord(ctx, key, existing.RecordID, fields)
	}
	_, err = c.AddRecord(ctx, key, fields)
	return false, err
}

// ListAllRecords pages through every row of an arbitrary bitable table.
// Unlike the managed-table helpers it takes explicit tokens, since the
// report monitor reads tables outside the managed bitable.
func (c *Client) ListAllRecords(ctx context.Context, appToken, tableID string) ([]Record, error) {
	var all []Record
	pageToken := ""

	for {
		params := url.Values{"page_size": {"100"}}
		if pageToken != "" {
			params.Set("page_token", pageToken)
		}
		path := fmt.Sprintf("/bitable/v1/apps/%s/tables/%s/records?%s", appToken, tableID, params.Encode())

		var data struct {
			Items     []Record `json:"items"`
			HasMore   bool     `json:"has_more"`
			PageToken string   `json:"page_token"`
		}
		if _, err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
			return nil, fmt.Errorf("listing records: %w", err)
		}

		all = append(all, data.Items...)
		if !data.HasMore {
			return all, nil
		}
		pageToken = data.PageToken
	}
}

// TableIDByName resolves a table name within an arbitrary bitable app.
func (c *Client) TableIDByName(ctx context.Context, appToken, name string) (string, error) {
	var data struct {
		Items []struct {
			Name    string `json:"name"`
			TableID string `json:"table_id"`
		} `json:"items"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/bitable/v1/apps/"+appToken+"/tables", nil, &data); err != nil {
		return "", fmt.Errorf("listing tables: %w", err)
	}
	for _, item := range data.Items {
		if item.Name == name {
			return item.TableID, nil
		}
	}
	return "", fmt.Errorf("table %q not found", name)
}
