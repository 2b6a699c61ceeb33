// internal/audio/pcm.go
package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// DefaultSampleRate 语音合成输出的采样率（Hz，单声道）
const DefaultSampleRate = 24000

// DecodePCM16 把 base64 编码的 PCM16 小端单声道采样解码为 [-1,1) 区间的浮点采样
// 字节数为奇数视为数据损坏
func DecodePCM16(encoded string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("音频base64解码失败: %w", err)
	}

	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("PCM16数据字节数为奇数: %d", len(raw))
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		sample := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = float32(sample) / 32768.0
	}

	return samples, nil
}

// EncodeFloat32LE 把浮点采样编码为小端 float32 字节流（播放设备的输入格式）
func EncodeFloat32LE(samples []float32) []byte {
	buf := make([]byte, len(samples)*4)
	for i, sample := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(sample))
	}
	return buf
}
