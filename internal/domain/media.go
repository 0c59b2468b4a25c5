package domain

import (
	"path"
	"strings"
	"sync"
)

// MediaCategory — категория медиафайла, определяемая только по расширению.
type MediaCategory string

const (
	MediaImage    MediaCategory = "image"
	MediaVideo    MediaCategory = "video"
	MediaAudio    MediaCategory = "audio"
	MediaDocument MediaCategory = "document"
)

// Расширения, которые считаются медиафайлами внутри архива.
var mediaExtensions = map[string]MediaCategory{
	"jpg":  MediaImage,
	"jpeg": MediaImage,
	"png":  MediaImage,
	"gif":  MediaImage,
	"webp": MediaImage,
	"bmp":  MediaImage,
	"mp4":  MediaVideo,
	"mov":  MediaVideo,
	"avi":  MediaVideo,
	"webm": MediaVideo,
	"mkv":  MediaVideo,
	"mp3":  MediaAudio,
	"wav":  MediaAudio,
	"ogg":  MediaAudio,
	"m4a":  MediaAudio,
	"opus": MediaAudio,
	"pdf":  MediaDocument,
}

func extensionOf(filename string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
}

// CategoryOf возвращает категорию по расширению файла без учета регистра.
// Неизвестные расширения относятся к документам.
func CategoryOf(filename string) MediaCategory {
	if c, ok := mediaExtensions[extensionOf(filename)]; ok {
		return c
	}
	return MediaDocument
}

// IsMediaFile сообщает, входит ли расширение файла в список медиа.
func IsMediaFile(filename string) bool {
	_, ok := mediaExtensions[extensionOf(filename)]
	return ok
}

// MediaContent — непрозрачный дескриптор содержимого медиафайла.
// После Release содержимое больше недоступно.
type MediaContent struct {
	mu       sync.RWMutex
	data     []byte
	size     int
	released bool
}

// NewMediaContent создает дескриптор над срезом байт. Срез не копируется.
func NewMediaContent(data []byte) *MediaContent {
	return &MediaContent{data: data, size: len(data)}
}

// Bytes возвращает содержимое; false означает, что дескриптор уже освобожден.
func (c *MediaContent) Bytes() ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.released {
		return nil, false
	}
	return c.data, true
}

// Size возвращает исходный размер содержимого.
func (c *MediaContent) Size() int {
	if c == nil {
		return 0
	}
	return c.size
}

// Release освобождает содержимое. Возвращает true только при первом вызове.
func (c *MediaContent) Release() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return false
	}
	c.released = true
	c.data = nil
	return true
}

// Released сообщает, освобожден ли дескриптор.
func (c *MediaContent) Released() bool {
	if c == nil {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.released
}

// MediaAttachment описывает медиафайл из архива.
type MediaAttachment struct {
	Filename string        `json:"filename"`
	Category MediaCategory `json:"category"`
	Size     int           `json:"size"`
	Content  *MediaContent `json:"-"`
}

// NewMediaAttachment создает вложение, определяя категорию по имени.
func NewMediaAttachment(filename string, data []byte) MediaAttachment {
	return MediaAttachment{
		Filename: filename,
		Category: CategoryOf(filename),
		Size:     len(data),
		Content:  NewMediaContent(data),
	}
}

// MediaLibrary владеет всеми медиафайлами одной загрузки.
// Файлы хранятся в порядке добавления.
type MediaLibrary struct {
	files  []MediaAttachment
	byName map[string]int
	once   sync.Once
}

// NewMediaLibrary создает библиотеку. При совпадении имен остается первый файл.
func NewMediaLibrary(files []MediaAttachment) *MediaLibrary {
	l := &MediaLibrary{
		files:  make([]MediaAttachment, 0, len(files)),
		byName: make(map[string]int, len(files)),
	}
	for _, f := range files {
		if _, dup := l.byName[f.Filename]; dup {
			continue
		}
		l.byName[f.Filename] = len(l.files)
		l.files = append(l.files, f)
	}
	return l
}

// Files возвращает копию списка файлов в порядке добавления.
func (l *MediaLibrary) Files() []MediaAttachment {
	if l == nil {
		return nil
	}
	out := make([]MediaAttachment, len(l.files))
	copy(out, l.files)
	return out
}

// Lookup ищет файл по имени.
func (l *MediaLibrary) Lookup(name string) (MediaAttachment, bool) {
	if l == nil {
		return MediaAttachment{}, false
	}
	i, ok := l.byName[name]
	if !ok {
		return MediaAttachment{}, false
	}
	return l.files[i], true
}

// Len возвращает количество файлов.
func (l *MediaLibrary) Len() int {
	if l == nil {
		return 0
	}
	return len(l.files)
}

// Release освобождает содержимое всех файлов ровно один раз.
func (l *MediaLibrary) Release() {
	if l == nil {
		return
	}
	l.once.Do(func() {
		for _, f := range l.files {
			f.Content.Release()
		}
	})
}
