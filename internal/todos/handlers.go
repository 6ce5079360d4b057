package todos

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"todochat/internal/auth"
	"todochat/internal/respond"
)

type createBody struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type updateBody struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsCompleted *bool   `json:"is_completed"`
}

func checkTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", errors.New("title cannot be empty")
	}
	if n := utf8.RuneCountInString(t); n > MaxTitleLength {
		return "", fmt.Errorf("title must be at most %d characters", MaxTitleLength)
	}
	return t, nil
}

func checkDescription(desc *string) error {
	if desc != nil && utf8.RuneCountInString(*desc) > MaxDescriptionLength {
		return fmt.Errorf("description must be at most %d characters", MaxDescriptionLength)
	}
	return nil
}

// pathID returns the {id} path segment, writing a 404 when it is not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Detail(w, http.StatusNotFound, "Todo not found")
		return 0, false
	}
	return id, true
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Detail(w, http.StatusUnauthorized, "Not authenticated")
	}
	return uid, ok
}

func notFound(w http.ResponseWriter, id int64) {
	respond.Detail(w, http.StatusNotFound, fmt.Sprintf("Todo with id %d not found", id))
}

func internal(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	logger.Error(op, zap.Error(err))
	respond.Detail(w, http.StatusInternalServerError, "Internal server error")
}

func GetTodosHandler(store Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}
		list, err := store.List(r.Context(), uid)
		if err != nil {
			internal(w, logger, "list todos", err)
			return
		}
		respond.JSON(w, http.StatusOK, list)
	}
}

func CreateTodoHandler(store Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}

		var body createBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respond.Detail(w, http.StatusBadRequest, "invalid json")
			return
		}
		if body.Title == nil {
			respond.Detail(w, http.StatusBadRequest, "title is required")
			return
		}
		title, err := checkTitle(*body.Title)
		if err != nil {
			respond.Detail(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := checkDescription(body.Description); err != nil {
			respond.Detail(w, http.StatusBadRequest, err.Error())
			return
		}

		t, err := store.Create(r.Context(), uid, title, body.Description)
		if err != nil {
			internal(w, logger, "create todo", err)
			return
		}
		logger.Info("todo created", zap.Int64("todo_id", t.ID), zap.Int64("user_id", uid))
		respond.JSON(w, http.StatusCreated, t)
	}
}

func GetTodoHandler(store Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		t, err := store.Get(r.Context(), uid, id)
		if errors.Is(err, ErrNotFound) {
			notFound(w, id)
			return
		}
		if err != nil {
			internal(w, logger, "get todo", err)
			return
		}
		respond.JSON(w, http.StatusOK, t)
	}
}

func UpdateTodoHandler(store Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		var body updateBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respond.Detail(w, http.StatusBadRequest, "invalid json")
			return
		}

		p := Patch{Description: body.Description, IsCompleted: body.IsCompleted}
		if body.Title != nil {
			title, err := checkTitle(*body.Title)
			if err != nil {
				respond.Detail(w, http.StatusBadRequest, err.Error())
				return
			}
			p.Title = &title
		}
		if err := checkDescription(body.Description); err != nil {
			respond.Detail(w, http.StatusBadRequest, err.Error())
			return
		}

		t, err := store.Update(r.Context(), uid, id, p)
		if errors.Is(err, ErrNotFound) {
			notFound(w, id)
			return
		}
		if err != nil {
			internal(w, logger, "update todo", err)
			return
		}
		respond.JSON(w, http.StatusOK, t)
	}
}

func DeleteTodoHandler(store Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		err := store.Delete(r.Context(), uid, id)
		if errors.Is(err, ErrNotFound) {
			notFound(w, id)
			return
		}
		if err != nil {
			internal(w, logger, "delete todo", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Register mounts the todo routes on mux behind the bearer middleware.
func Register(mux *http.ServeMux, store Store, mw auth.Middleware, logger *zap.Logger) {
	logger = logger.Named("todos")
	mux.HandleFunc("GET /api/todos", mw.Wrap(GetTodosHandler(store, logger)))
	mux.HandleFunc("POST /api/todos", mw.Wrap(CreateTodoHandler(store, logger)))
	mux.HandleFunc("GET /api/todos/{id}", mw.Wrap(GetTodoHandler(store, logger)))
	mux.HandleFunc("PUT /api/todos/{id}", mw.Wrap(UpdateTodoHandler(store, logger)))
	mux.HandleFunc("DELETE /api/todos/{id}", mw.Wrap(DeleteTodoHandler(store, logger)))
}
