package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// clampQuality は圧縮品質を[1,100]に収める
func clampQuality(quality int) int {
	if quality < 1 {
		return 1
	}
	if quality > 100 {
		return 100
	}
	return quality
}

// encodeJPEG は生フレームを指定品質でJPEGにエンコードする
func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: clampQuality(quality)}); err != nil {
		return nil, fmt.Errorf("JPEGエンコードに失敗: %w", err)
	}
	return buf.Bytes(), nil
}
