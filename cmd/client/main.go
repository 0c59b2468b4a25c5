package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
	"whatsapp-chat-viewer/internal/adapters/exporter"
	"whatsapp-chat-viewer/internal/domain"
)

type TaskStatusResponse struct {
	TaskID       string              `json:"task_id"`
	SessionID    string              `json:"session_id"`
	Status       string              `json:"status"`
	ErrorMessage string              `json:"error_message,omitempty"`
	Summary      *domain.ChatSummary `json:"summary,omitempty"`
}

func main() {
	var serverAddr, sessionID string
	var pollInterval time.Duration
	flag.StringVar(&serverAddr, "server", "http://localhost:8080", "Server address")
	flag.StringVar(&sessionID, "session", "", "Existing session id to replace the chat in")
	flag.DurationVar(&pollInterval, "poll", time.Second, "Task status poll interval")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("Exactly one file path is required. Usage: client [flags] <chat.zip|chat.txt>")
	}
	path := flag.Arg(0)

	// Создание многочастной формы для загрузки файла
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	file, err := os.Open(path)
	if err != nil {
		log.Fatalf("Не удалось открыть файл %s: %v", path, err)
	}
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		_ = file.Close()
		log.Fatalf("Не удалось создать файл формы для %s: %v", path, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		_ = file.Close()
		log.Fatalf("Не удалось записать данные файла %s: %v", path, err)
	}
	if err := file.Close(); err != nil {
		log.Printf("Warning: failed to close file %s: %v", path, err)
	}

	if sessionID != "" {
		if err := writer.WriteField("session_id", sessionID); err != nil {
			log.Fatalf("Не удалось записать session_id: %v", err)
		}
	}

	// Важно закрыть writer, чтобы записать завершающую границу
	if err := writer.Close(); err != nil {
		log.Fatalf("Не удалось закрыть multipart writer: %v", err)
	}

	resp, err := http.Post(serverAddr+"/api/v1/process", writer.FormDataContentType(), &body)
	if err != nil {
		log.Fatalf("Не удалось отправить запрос: %v", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		msg, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		log.Fatalf("Сервер вернул статус %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var taskResp map[string]string
	err = json.NewDecoder(resp.Body).Decode(&taskResp)
	_ = resp.Body.Close()
	if err != nil {
		log.Fatalf("Не удалось декодировать ответ: %v", err)
	}
	taskID := taskResp["task_id"]
	if taskID == "" {
		log.Fatal("Идентификатор задачи не найден в ответе")
	}
	sessionID = taskResp["session_id"]

	fmt.Printf("Задача создана с идентификатором: %s (сессия %s)\n", taskID, sessionID)

	// Опрос о статусе задачи
	for {
		time.Sleep(pollInterval)

		var status TaskStatusResponse
		if err := getJSON(fmt.Sprintf("%s/api/v1/tasks/%s", serverAddr, taskID), &status); err != nil {
			log.Fatalf("Не удалось опросить статус задачи: %v", err)
		}

		switch status.Status {
		case "completed":
			var view domain.WindowView
			url := fmt.Sprintf("%s/api/v1/sessions/%s/messages", serverAddr, sessionID)
			if err := getJSON(url, &view); err != nil {
				log.Fatalf("Не удалось получить сообщения: %v", err)
			}
			if err := exporter.NewConsoleExporter().Export(view); err != nil {
				log.Fatalf("Не удалось вывести сообщения: %v", err)
			}
			return
		case "failed":
			fmt.Printf("Задача не выполнена: %s\n", status.ErrorMessage)
			os.Exit(1)
		case "pending", "processing":
			fmt.Printf("Статус задачи: %s\n", status.Status)
		default:
			log.Fatalf("Неизвестный статус задачи: %s", status.Status)
		}
	}
}

func getJSON(url string, v any) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("сервер вернул статус: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
