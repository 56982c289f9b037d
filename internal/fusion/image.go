package fusion

// processImage treats externally supplied OCR text exactly like text
// input. Without OCR text the image contributes nothing: empty text,
// confidence 0. Pixel analysis is out of scope.
func (e *Engine) processImage(input ImageInput, callerContext map[string]any) *ModalityResult {
	if input.OCRText == "" {
		return &ModalityResult{Modality: ModalityImage}
	}

	result := &ModalityResult{
		Modality: ModalityImage,
		Text:     input.OCRText,
	}

	recognition := e.recognizer.Recognize(input.OCRText, callerContext)
	result.Intent = &recognition
	result.Confidence = recognition.Primary.Confidence

	return result
}
