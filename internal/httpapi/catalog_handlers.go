package httpapi

import (
	"net/http"

	"tokosepatu/backend/internal/domain"
)

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.ListProducts(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (a *API) handleLowStockProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.ListLowStockProducts(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (a *API) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	product, err := a.service.GetProduct(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (a *API) handleGetProductByCode(w http.ResponseWriter, r *http.Request) {
	product, err := a.service.GetProductByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductCreateRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	product, err := a.service.CreateProduct(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"product": product})
}

func (a *API) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	var req domain.ProductUpdateRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	product, err := a.service.UpdateProduct(r.Context(), id, req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (a *API) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.service.DeleteProduct(r.Context(), id); err != nil {
		a.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleRestockProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	var req domain.RestockRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	product, err := a.service.RestockProduct(r.Context(), id, req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (a *API) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := a.service.ListCustomers(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
}

func (a *API) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	customer, err := a.service.GetCustomer(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customer": customer})
}

func (a *API) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req domain.CustomerRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	customer, err := a.service.CreateCustomer(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"customer": customer})
}

func (a *API) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	var req domain.CustomerRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	customer, err := a.service.UpdateCustomer(r.Context(), id, req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customer": customer})
}

func (a *API) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.service.DeleteCustomer(r.Context(), id); err != nil {
		a.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	var (
		employees []domain.Employee
		err       error
	)
	if role := r.URL.Query().Get("role"); role != "" {
		employees, err = a.service.ListEmployeesByRole(r.Context(), role)
	} else {
		employees, err = a.service.ListEmployees(r.Context())
	}
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employees": employees})
}

func (a *API) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	employee, err := a.service.GetEmployee(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employee": employee})
}

func (a *API) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req domain.EmployeeRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	employee, err := a.service.CreateEmployee(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"employee": employee})
}

func (a *API) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	var req domain.EmployeeRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	employee, err := a.service.UpdateEmployee(r.Context(), id, req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employee": employee})
}

func (a *API) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.service.DeleteEmployee(r.Context(), id); err != nil {
		a.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := a.service.ListSuppliers(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suppliers": suppliers})
}

func (a *API) handleGetSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	supplier, err := a.service.GetSupplier(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"supplier": supplier})
}

func (a *API) handleCreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req domain.SupplierRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	supplier, err := a.service.CreateSupplier(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"supplier": supplier})
}

func (a *API) handleUpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	var req domain.SupplierRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	supplier, err := a.service.UpdateSupplier(r.Context(), id, req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"supplier": supplier})
}

func (a *API) handleDeleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.service.DeleteSupplier(r.Context(), id); err != nil {
		a.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := a.service.DashboardSummary(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
