// internal/audio/pcm_test.go
package audio

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"testing"
)

func encodePCM16(samples []int16) string {
	raw := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(sample))
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// TestDecodePCM16 测试采样归一化
func TestDecodePCM16(t *testing.T) {
	encoded := encodePCM16([]int16{0, 16384, -16384, 32767, -32768})

	samples, err := DecodePCM16(encoded)
	if err != nil {
		t.Fatalf("解码失败: %v", err)
	}

	want := []float32{0, 0.5, -0.5, 32767.0 / 32768.0, -1.0}
	if len(samples) != len(want) {
		t.Fatalf("采样数量期望 %d，实际 %d", len(want), len(samples))
	}

	for i := range want {
		if math.Abs(float64(samples[i]-want[i])) > 1e-6 {
			t.Errorf("采样[%d] 期望 %v，实际 %v", i, want[i], samples[i])
		}
	}
}

// TestDecodePCM16Errors 测试损坏输入
func TestDecodePCM16Errors(t *testing.T) {
	if _, err := DecodePCM16("!!!invalid!!!"); err == nil {
		t.Error("非法base64应返回错误")
	}

	// 奇数字节
	odd := base64.StdEncoding.EncodeToString([]byte{0x01, 0x02, 0x03})
	if _, err := DecodePCM16(odd); err == nil {
		t.Error("奇数字节数应返回错误")
	}
}

// TestDecodePCM16Empty 测试空输入得到空采样
func TestDecodePCM16Empty(t *testing.T) {
	samples, err := DecodePCM16("")
	if err != nil {
		t.Fatalf("空输入不应报错: %v", err)
	}
	if len(samples) != 0 {
		t.Errorf("空输入应得到空采样，实际 %d", len(samples))
	}
}

// TestEncodeFloat32LERoundTrip 测试播放格式编码
func TestEncodeFloat32LERoundTrip(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1.0}
	raw := EncodeFloat32LE(samples)

	if len(raw) != len(samples)*4 {
		t.Fatalf("编码长度期望 %d，实际 %d", len(samples)*4, len(raw))
	}

	for i, want := range samples {
		got := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		if got != want {
			t.Errorf("采样[%d] 期望 %v，实际 %v", i, want, got)
		}
	}
}
