// internal/storage/file_storage_test.go
package storage

import (
	"os"
	"path/filepath"
	"testing"
)

type sampleRecord struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TestSaveAndLoadJSON 测试JSON读写往返
func TestSaveAndLoadJSON(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("创建存储失败: %v", err)
	}

	saved := sampleRecord{Name: "history", Count: 20}
	if err := fs.SaveJSONFile("records.json", saved); err != nil {
		t.Fatalf("保存失败: %v", err)
	}

	var loaded sampleRecord
	if err := fs.LoadJSONFile("records.json", &loaded); err != nil {
		t.Fatalf("读取失败: %v", err)
	}

	if loaded != saved {
		t.Errorf("往返数据不一致: %+v != %+v", loaded, saved)
	}
}

// TestAtomicOverwrite 测试整体替换写入不留临时文件
func TestAtomicOverwrite(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStorage(dir)
	if err != nil {
		t.Fatalf("创建存储失败: %v", err)
	}

	if err := fs.SaveTextFile("data.json", []byte("v1")); err != nil {
		t.Fatalf("首次写入失败: %v", err)
	}
	if err := fs.SaveTextFile("data.json", []byte("v2")); err != nil {
		t.Fatalf("覆盖写入失败: %v", err)
	}

	content, err := fs.LoadTextFile("data.json")
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if string(content) != "v2" {
		t.Errorf("内容期望 v2，实际 %q", content)
	}

	if _, err := os.Stat(filepath.Join(dir, "data.json.tmp")); !os.IsNotExist(err) {
		t.Error("写入完成后不应残留临时文件")
	}
}

// TestDeleteMissingFile 测试删除不存在的文件视为成功
func TestDeleteMissingFile(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("创建存储失败: %v", err)
	}

	if err := fs.DeleteFile("never-existed.json"); err != nil {
		t.Errorf("删除不存在的文件不应报错: %v", err)
	}
}

// TestDeleteInvalidatesCache 测试删除后读取不命中旧缓存
func TestDeleteInvalidatesCache(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("创建存储失败: %v", err)
	}

	if err := fs.SaveTextFile("cached.json", []byte("cached")); err != nil {
		t.Fatalf("写入失败: %v", err)
	}

	// 读取一次以填充缓存
	if _, err := fs.LoadTextFile("cached.json"); err != nil {
		t.Fatalf("读取失败: %v", err)
	}

	if err := fs.DeleteFile("cached.json"); err != nil {
		t.Fatalf("删除失败: %v", err)
	}

	if fs.FileExists("cached.json") {
		t.Error("删除后文件不应存在")
	}
	if _, err := fs.LoadTextFile("cached.json"); err == nil {
		t.Error("删除后读取应返回错误而非缓存内容")
	}
}
