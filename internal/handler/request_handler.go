package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"requestdesk/internal/model"
	"requestdesk/internal/service"
	"requestdesk/pkg/pagination"
	"requestdesk/pkg/response"
)

const maxUploadSize = 10 << 20

type RequestHandler struct {
	requestService service.RequestService
}

func NewRequestHandler(requestService service.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

// RegisterRoutes binds the request endpoints; router must already run Auth.
func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/request", h.CreateRequest)
	router.GET("/requests", h.ListRequests)

	request := router.Group("/request/:id")
	{
		request.GET("", h.GetRequest)
		request.PATCH("", h.UpdateRequest)
		request.POST("/status", h.ChangeStatus)
		request.POST("/assign", h.Assign)
		request.POST("/job-status", h.UpdateJobStatus)
		request.POST("/in-progress", h.MarkInProgress)
		request.GET("/actions", h.Actions)
		request.GET("/activity", h.Activity)
		request.POST("/items", h.AddItem)
		request.PATCH("/items/:itemId", h.UpdateItemQuantity)
		request.DELETE("/items/:itemId", h.RemoveItem)
		request.POST("/files", h.UploadFile)
		request.GET("/files/:fileId", h.FileURL)
	}
}

// CreateRequest handles POST /api/request
// @Summary      Submit a request
// @Description  Submits a job, venue, transport or resource request. Exactly the detail matching type must be present.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRequestInput  true  "Request"
// @Success      201      {object}  response.Response{data=service.RequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/request [post]
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var in service.CreateRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.requestService.Create(c.Request.Context(), a, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// ListRequests handles GET /api/requests
// @Summary      List requests
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        scope          query     string  false  "mine | department | assigned | all"
// @Param        department_id  query     string  false  "Department ID"
// @Param        status         query     string  false  "Request status"
// @Param        type           query     string  false  "Request type"
// @Param        from           query     string  false  "Created from (YYYY-MM-DD)"
// @Param        to             query     string  false  "Created to (YYYY-MM-DD)"
// @Param        search         query     string  false  "Title search"
// @Param        page           query     int     false  "Page number (default 1)"
// @Param        limit          query     int     false  "Items per page (default 20)"
// @Success      200            {object}  response.Response{data=response.Page}
// @Router       /api/requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var q service.ListRequestsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	p := pagination.Parse(c)
	q.Page, q.Limit = p.Page, p.Limit

	items, total, err := h.requestService.List(c.Request.Context(), a, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, items, p.Page, p.Limit, total))
}

// GetRequest handles GET /api/request/{id}
// @Summary      Get a request
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/request/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	res, err := h.requestService.Get(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// UpdateRequest handles PATCH /api/request/{id}
// @Summary      Edit a pending request
// @Description  Only the requester may edit, and only while the request is pending. Every changed field is logged.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Request ID"
// @Param        payload  body      service.UpdateRequestInput  true  "Changed fields"
// @Success      200      {object}  response.Response{data=service.RequestResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/request/{id} [patch]
func (h *RequestHandler) UpdateRequest(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.UpdateRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.requestService.Update(c.Request.Context(), a, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// ChangeStatus handles POST /api/request/{id}/status
// @Summary      Change request status
// @Description  The target status selects the workflow action: REVIEWED or APPROVED approves, and APPROVED on a REVIEWED request finalizes it. COMPLETED completes an APPROVED request. CANCELLED cancels and REJECTED rejects.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Request ID"
// @Param        payload  body      service.StatusChangeInput  true  "Status change"
// @Success      200      {object}  response.Response{data=service.RequestResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/request/{id}/status [post]
func (h *RequestHandler) ChangeStatus(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.StatusChangeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.requestService.ChangeStatus(c.Request.Context(), a, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Assign handles POST /api/request/{id}/assign
// @Summary      Assign personnel to a job
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true  "Request ID"
// @Param        payload  body      service.AssignInput  true  "Assignee"
// @Success      200      {object}  response.Response{data=service.RequestResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/request/{id}/assign [post]
func (h *RequestHandler) Assign(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.AssignInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.requestService.Assign(c.Request.Context(), a, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// UpdateJobStatus handles POST /api/request/{id}/job-status
// @Summary      Move an approved job through its own states
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                  true  "Request ID"
// @Param        payload  body      service.JobStatusInput  true  "Job status"
// @Success      200      {object}  response.Response{data=service.RequestResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/request/{id}/job-status [post]
func (h *RequestHandler) UpdateJobStatus(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.JobStatusInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.requestService.UpdateJobStatus(c.Request.Context(), a, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// MarkInProgress handles POST /api/request/{id}/in-progress
// @Summary      Mark an approved venue, vehicle or resource as in use
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/request/{id}/in-progress [post]
func (h *RequestHandler) MarkInProgress(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	res, err := h.requestService.MarkInProgress(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Actions handles GET /api/request/{id}/actions
// @Summary      Action panel
// @Description  Every action the caller's roles expose on the request, each with whether it is enabled and why not.
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=[]workflow.PanelAction}
// @Router       /api/request/{id}/actions [get]
func (h *RequestHandler) Actions(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	actions, err := h.requestService.Actions(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, actions))
}

// Activity handles GET /api/request/{id}/activity
// @Summary      Request activity log
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=[]model.Activity}
// @Router       /api/request/{id}/activity [get]
func (h *RequestHandler) Activity(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	entries, err := h.requestService.Activity(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if entries == nil {
		entries = []model.Activity{}
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entries))
}

// AddItem handles POST /api/request/{id}/items
// @Summary      Add an item to a pending resource request
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string             true  "Request ID"
// @Param        payload  body      service.ItemInput  true  "Item"
// @Success      200      {object}  response.Response{data=service.RequestResponse}
// @Router       /api/request/{id}/items [post]
func (h *RequestHandler) AddItem(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.ItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.requestService.AddItem(c.Request.Context(), a, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// UpdateItemQuantity handles PATCH /api/request/{id}/items/{itemId}
// @Summary      Change an item quantity
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Request ID"
// @Param        itemId   path      string                     true  "Item ID"
// @Param        payload  body      service.ItemQuantityInput  true  "Quantity"
// @Success      200      {object}  response.Response{data=service.RequestResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/request/{id}/items/{itemId} [patch]
func (h *RequestHandler) UpdateItemQuantity(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	var in service.ItemQuantityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.requestService.UpdateItemQuantity(c.Request.Context(), a, id, itemID, in.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// RemoveItem handles DELETE /api/request/{id}/items/{itemId}
// @Summary      Remove an item
// @Description  Fails when it is the request's only item.
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string  true  "Request ID"
// @Param        itemId  path      string  true  "Item ID"
// @Success      200     {object}  response.Response{data=service.RequestResponse}
// @Failure      422     {object}  response.Response
// @Router       /api/request/{id}/items/{itemId} [delete]
func (h *RequestHandler) RemoveItem(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}

	res, err := h.requestService.RemoveItem(c.Request.Context(), a, id, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// UploadFile handles POST /api/request/{id}/files
// @Summary      Attach a file to a job request
// @Tags         requests
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Request ID"
// @Param        file  formData  file    true  "Attachment"
// @Success      201   {object}  response.Response{data=model.JobFile}
// @Failure      503   {object}  response.Response
// @Router       /api/request/{id}/files [post]
func (h *RequestHandler) UploadFile(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "A file is required"))
		return
	}
	if header.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, response.Error(http.StatusRequestEntityTooLarge, "File is larger than 10 MB"))
		return
	}
	f, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	file, err := h.requestService.AttachFile(c.Request.Context(), a, id, service.FileUpload{
		FileName: header.Filename,
		Size:     header.Size,
		Content:  f,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, file))
}

// FileURL handles GET /api/request/{id}/files/{fileId}
// @Summary      Presigned download URL for an attachment
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string  true  "Request ID"
// @Param        fileId  path      string  true  "File ID"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/request/{id}/files/{fileId} [get]
func (h *RequestHandler) FileURL(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	fileID, ok := pathID(c, "fileId")
	if !ok {
		return
	}

	url, err := h.requestService.FileURL(c.Request.Context(), a, id, fileID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"url": url}))
}
